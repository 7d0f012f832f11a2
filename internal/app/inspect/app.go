/**
 * 应用:检测协调服务装配
 * @author: sun977
 * @date: 2025.11.10
 * @description: 组件装配与生命周期管理，按依赖顺序初始化并支持优雅关闭
 * @func: NewApp/Start/Stop
 */
package inspect

import (
	"context"
	"fmt"
	"os"

	"neoinspect/internal/config"
	handler "neoinspect/internal/handler/inspection"
	"neoinspect/internal/pkg/client"
	"neoinspect/internal/pkg/database"
	"neoinspect/internal/pkg/logger"
	"neoinspect/internal/pkg/mq"
	redisRepo "neoinspect/internal/repo/redis"
	"neoinspect/internal/repo/sqldb"
	"neoinspect/internal/service/analyzer"
	"neoinspect/internal/service/inspection"

	goredis "github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App 检测协调服务应用
type App struct {
	cfg        *config.Config
	logManager *logger.LoggerManager

	db          *gorm.DB
	redisClient *goredis.Client
	consumer    *mq.Consumer

	queue      *inspection.TaskQueue
	registry   *inspection.StatusRegistry
	orders     *inspection.OrderContextStore
	ledger     *inspection.ArtifactLedger
	handoff    *inspection.HandoffSlot
	dispatcher *inspection.Dispatcher
	heartbeat  *inspection.HeartbeatReporter
	ingestor   *inspection.RequestIngestor

	router *Router
	cancel context.CancelFunc
}

// NewApp 创建应用实例，按依赖顺序初始化全部组件
// 任一关键依赖初始化失败时返回错误，服务不应以残缺状态启动
func NewApp(configPath, env string) (*App, error) {
	// 配置
	cfg, err := config.LoadConfig(configPath, env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 日志
	logManager, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	// 媒体目录
	if err := os.MkdirAll(cfg.Inspection.MediaDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	// 数据库
	db, err := database.NewSQLConnection(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := sqldb.AutoMigrate(db); err != nil {
		return nil, err
	}

	// Redis状态镜像(可选)
	var redisClient *goredis.Client
	var mirror inspection.StatusMirrorWriter
	if cfg.Database.Redis.Enabled {
		redisClient, err = database.NewRedisConnection(&cfg.Database.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		mirror = redisRepo.NewStatusMirror(redisClient)
	}

	// 仓库与核心服务
	artifactRepo := sqldb.NewArtifactRepository(db)
	orderRepo := sqldb.NewOrderContextRepository(db)

	queue := inspection.NewTaskQueue(cfg.Inspection.QueueBuffer)
	registry := inspection.NewStatusRegistry(mirror)
	orders := inspection.NewOrderContextStore(orderRepo)
	ledger := inspection.NewArtifactLedger(artifactRepo, cfg.Inspection.LedgerLimit, cfg.Inspection.MediaDir)
	handoff := inspection.NewHandoffSlot()

	// 启动时恢复持久化状态
	restoreCtx := context.Background()
	if err := orders.Restore(restoreCtx); err != nil {
		return nil, err
	}
	if err := ledger.Restore(restoreCtx); err != nil {
		return nil, err
	}

	// 外发客户端与调度器
	sink := client.NewSinkClient(&cfg.ResultSink, &cfg.Heartbeat)
	taskAnalyzer := analyzer.NewSimulationAnalyzer(cfg.Inspection.MediaDir)

	dispatcher := inspection.NewDispatcher(inspection.DispatcherOptions{
		Queue:           queue,
		Registry:        registry,
		Orders:          orders,
		Ledger:          ledger,
		Handoff:         handoff,
		Analyzer:        taskAnalyzer,
		Sink:            sink,
		AnalyzerTimeout: cfg.Inspection.AnalyzerTimeout,
	})
	heartbeat := inspection.NewHeartbeatReporter(sink, cfg.Heartbeat.Interval, cfg.Heartbeat.Timeout)
	ingestor := inspection.NewRequestIngestor(queue, orders)

	// 入站消息通道，连接失败时服务不启动
	consumer, err := mq.NewConsumer(&cfg.RabbitMQ)
	if err != nil {
		return nil, fmt.Errorf("failed to init message consumer: %w", err)
	}

	// 状态查看API
	statusHandler := handler.NewStatusHandler(registry, queue, orders)
	artifactHandler := handler.NewArtifactHandler(ledger)
	router := NewRouter(cfg, statusHandler, artifactHandler)
	router.SetupRoutes()

	return &App{
		cfg:         cfg,
		logManager:  logManager,
		db:          db,
		redisClient: redisClient,
		consumer:    consumer,
		queue:       queue,
		registry:    registry,
		orders:      orders,
		ledger:      ledger,
		handoff:     handoff,
		dispatcher:  dispatcher,
		heartbeat:   heartbeat,
		ingestor:    ingestor,
		router:      router,
	}, nil
}

// Start 启动后台工作协程并订阅入站队列
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.dispatcher.Start(runCtx)
	a.heartbeat.Start(runCtx)

	if err := a.consumer.Subscribe(runCtx, a.cfg.RabbitMQ.OrderUpdate, a.ingestor.HandleOrderUpdate); err != nil {
		return fmt.Errorf("failed to subscribe order update queue: %w", err)
	}
	for _, binding := range a.cfg.RabbitMQ.TaskStart {
		if err := a.consumer.Subscribe(runCtx, binding, a.ingestor.HandleTaskStart); err != nil {
			return fmt.Errorf("failed to subscribe task start queue %s: %w", binding.Queue, err)
		}
	}

	// 配置文件热重载
	if err := config.StartConfigWatcher("", config.GetEnv()); err != nil {
		logger.LogError(err, "app", "start_config_watcher", nil)
	} else {
		_ = config.AddConfigReloadCallback(a.onConfigReload)
		_ = config.AddConfigReloadCallback(config.HeartbeatConfigReloadCallback)
		_ = config.AddConfigReloadCallback(config.DatabaseConfigReloadCallback)
	}

	logger.LogSystemEvent("app", "startup",
		fmt.Sprintf("%s started, listening on %s", a.cfg.App.Name, a.cfg.Server.GetAddress()),
		logrus.InfoLevel, nil)

	return nil
}

// onConfigReload 配置重载回调，热更新日志配置
func (a *App) onConfigReload(oldConfig, newConfig *config.Config) error {
	if a.logManager == nil {
		return nil
	}
	return a.logManager.UpdateConfig(&newConfig.Log)
}

// Stop 停止全部后台协程并释放资源
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}

	a.dispatcher.Wait()
	a.heartbeat.Wait()

	_ = config.StopConfigWatcher()

	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	logger.LogSystemEvent("app", "shutdown", "application stopped", logrus.InfoLevel, nil)
}

// GetConfig 获取应用配置
func (a *App) GetConfig() *config.Config {
	return a.cfg
}

// GetRouter 获取路由管理器
func (a *App) GetRouter() *Router {
	return a.router
}

// ConnectionLost 返回MQ连接断开通知通道
// 包装amqp错误通道，调用方只关心断开事件本身
func (a *App) ConnectionLost() <-chan struct{} {
	lost := make(chan struct{}, 1)
	go func() {
		if err := <-a.consumer.NotifyClose(); err != nil {
			logger.LogError(err, "app", "mq_connection_lost", nil)
		}
		lost <- struct{}{}
	}()
	return lost
}
