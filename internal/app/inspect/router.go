/**
 * 路由:路由管理器
 * @author: sun977
 * @date: 2025.11.10
 * @description: 状态查看API的路由注册
 * @func: SetupRoutes
 */
package inspect

import (
	"net/http"

	"neoinspect/internal/config"
	handler "neoinspect/internal/handler/inspection"
	"neoinspect/internal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Router 路由管理器
type Router struct {
	engine          *gin.Engine
	cfg             *config.Config
	statusHandler   *handler.StatusHandler
	artifactHandler *handler.ArtifactHandler
}

// NewRouter 创建路由管理器
func NewRouter(cfg *config.Config, statusHandler *handler.StatusHandler, artifactHandler *handler.ArtifactHandler) *Router {
	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()

	return &Router{
		engine:          engine,
		cfg:             cfg,
		statusHandler:   statusHandler,
		artifactHandler: artifactHandler,
	}
}

// GetEngine 获取Gin引擎实例
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// SetupRoutes 注册全部路由
func (r *Router) SetupRoutes() {
	// 全局中间件
	r.engine.Use(RecoveryMiddleware())
	r.engine.Use(RequestLoggerMiddleware())
	if r.cfg.Security.CORS.Enabled {
		r.engine.Use(CORSMiddleware(&r.cfg.Security.CORS))
	}
	r.engine.Use(APIKeyMiddleware(&r.cfg.Security.Auth))

	// 健康检查
	v1 := r.engine.Group("/api/v1")
	r.setupHealthRoutes(v1)

	// 任务状态查询
	v1.GET("/status", r.statusHandler.GetAllStatus)
	v1.GET("/status/:task_type", r.statusHandler.GetStatusByType)
	v1.GET("/order", r.statusHandler.GetOrderContext)

	// 产物台账查询，路径与产线侧既有看板保持一致
	api := r.engine.Group("/api")
	api.GET("/last_files", r.artifactHandler.GetLastFiles)
	api.GET("/all_files", r.artifactHandler.GetAllFiles)
	api.GET("/files/:task_type", r.artifactHandler.GetFilesByType)

	// 产物文件服务
	r.engine.GET("/media/*filepath", r.artifactHandler.ServeMedia)
}

// setupHealthRoutes 设置健康检查路由
func (r *Router) setupHealthRoutes(api *gin.RouterGroup) {
	api.GET("/health", r.healthCheck)
	api.GET("/ready", r.readinessCheck)
	api.GET("/live", r.livenessCheck)
}

// healthCheck 健康检查处理器
func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": logger.NowFormatted(),
	})
}

// readinessCheck 就绪检查处理器
func (r *Router) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": logger.NowFormatted(),
	})
}

// livenessCheck 存活检查处理器
func (r *Router) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": logger.NowFormatted(),
	})
}
