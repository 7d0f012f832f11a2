package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
)

// LoadConfig 加载配置文件
// configPath: 配置文件路径，如果为空则使用默认路径
// env: 环境标识，支持 development, test, production
func LoadConfig(configPath, env string) (*Config, error) {
	// 设置默认环境
	if env == "" {
		env = getEnvFromEnvironment()
	}

	// 创建viper实例
	v := viper.New()

	// 设置配置文件类型
	v.SetConfigType("yaml")

	// 设置配置文件路径
	if configPath == "" {
		configPath = getDefaultConfigPath()
	}

	// 根据环境选择配置文件
	configFile := getConfigFileName(configPath, env)
	v.SetConfigFile(configFile)

	// 设置环境变量前缀
	v.SetEnvPrefix("NEOINSPECT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 绑定环境变量
	bindEnvironmentVariables(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	// 解析配置到结构体
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	// 验证配置
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 设置全局配置
	GlobalConfig = &config

	return &config, nil
}

// getEnvFromEnvironment 从环境变量获取环境标识
func getEnvFromEnvironment() string {
	env := os.Getenv("NEOINSPECT_ENV")
	if env == "" {
		env = os.Getenv("GO_ENV")
	}
	if env == "" {
		env = "development" // 默认开发环境
	}
	return env
}

// getDefaultConfigPath 获取默认配置文件路径
func getDefaultConfigPath() string {
	// 尝试从环境变量获取配置路径
	if configPath := os.Getenv("NEOINSPECT_CONFIG_PATH"); configPath != "" {
		return configPath
	}

	// 使用默认路径
	return "configs"
}

// getConfigFileName 根据环境获取配置文件名
func getConfigFileName(configPath, env string) string {
	var configFile string

	switch env {
	case "production", "prod":
		configFile = filepath.Join(configPath, "config.prod.yaml")
	case "test", "testing":
		configFile = filepath.Join(configPath, "config.test.yaml")
	default:
		configFile = filepath.Join(configPath, "config.yaml")
	}

	// 检查文件是否存在，如果不存在则使用默认配置文件
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		defaultConfig := filepath.Join(configPath, "config.yaml")
		if _, err := os.Stat(defaultConfig); err == nil {
			return defaultConfig
		}
	}

	return configFile
}

// bindEnvironmentVariables 绑定环境变量
func bindEnvironmentVariables(v *viper.Viper) {
	// 存储配置
	v.BindEnv("database.driver", "NEOINSPECT_DB_DRIVER")
	v.BindEnv("database.sqlite.path", "NEOINSPECT_SQLITE_PATH")
	v.BindEnv("database.mysql.host", "NEOINSPECT_MYSQL_HOST")
	v.BindEnv("database.mysql.port", "NEOINSPECT_MYSQL_PORT")
	v.BindEnv("database.mysql.username", "NEOINSPECT_MYSQL_USERNAME")
	v.BindEnv("database.mysql.password", "NEOINSPECT_MYSQL_PASSWORD")
	v.BindEnv("database.mysql.database", "NEOINSPECT_MYSQL_DATABASE")

	v.BindEnv("database.redis.enabled", "NEOINSPECT_REDIS_ENABLED")
	v.BindEnv("database.redis.host", "NEOINSPECT_REDIS_HOST")
	v.BindEnv("database.redis.port", "NEOINSPECT_REDIS_PORT")
	v.BindEnv("database.redis.password", "NEOINSPECT_REDIS_PASSWORD")
	v.BindEnv("database.redis.database", "NEOINSPECT_REDIS_DATABASE")

	// 消息队列配置
	v.BindEnv("rabbitmq.host", "NEOINSPECT_RABBITMQ_HOST")
	v.BindEnv("rabbitmq.port", "NEOINSPECT_RABBITMQ_PORT")
	v.BindEnv("rabbitmq.username", "NEOINSPECT_RABBITMQ_USERNAME")
	v.BindEnv("rabbitmq.password", "NEOINSPECT_RABBITMQ_PASSWORD")
	v.BindEnv("rabbitmq.vhost", "NEOINSPECT_RABBITMQ_VHOST")
	v.BindEnv("rabbitmq.order_update.exchange", "NEOINSPECT_ORDER_UPDATE_EXCHANGE")
	v.BindEnv("rabbitmq.order_update.queue", "NEOINSPECT_ORDER_UPDATE_QUEUE")
	v.BindEnv("rabbitmq.order_update.routing_key", "NEOINSPECT_ORDER_UPDATE_ROUTING_KEY")

	// 外部端点配置
	v.BindEnv("heartbeat.endpoint", "NEOINSPECT_HEARTBEAT_ENDPOINT")
	v.BindEnv("result_sink.result_endpoint", "NEOINSPECT_RESULT_ENDPOINT")
	v.BindEnv("result_sink.upload_endpoint", "NEOINSPECT_UPLOAD_ENDPOINT")

	// 服务器配置
	v.BindEnv("server.host", "NEOINSPECT_SERVER_HOST")
	v.BindEnv("server.port", "NEOINSPECT_SERVER_PORT")
	v.BindEnv("server.mode", "NEOINSPECT_SERVER_MODE")

	// 应用配置
	v.BindEnv("app.environment", "NEOINSPECT_APP_ENVIRONMENT")
	v.BindEnv("app.debug", "NEOINSPECT_APP_DEBUG")
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	// 验证服务器配置
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Server.Mode != "debug" && config.Server.Mode != "release" && config.Server.Mode != "test" {
		return fmt.Errorf("invalid server mode: %s", config.Server.Mode)
	}

	// 验证存储配置
	switch config.Database.Driver {
	case "sqlite":
		if config.Database.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case "mysql":
		if config.Database.MySQL.Host == "" {
			return fmt.Errorf("mysql host is required")
		}
		if config.Database.MySQL.Database == "" {
			return fmt.Errorf("mysql database name is required")
		}
	default:
		return fmt.Errorf("invalid database driver: %s", config.Database.Driver)
	}

	if config.Database.Redis.Enabled && config.Database.Redis.Host == "" {
		return fmt.Errorf("redis host is required when status mirror is enabled")
	}

	// 验证消息队列配置
	if config.RabbitMQ.Host == "" {
		return fmt.Errorf("rabbitmq host is required")
	}
	if config.RabbitMQ.OrderUpdate.Queue == "" {
		return fmt.Errorf("rabbitmq order_update queue is required")
	}
	if len(config.RabbitMQ.TaskStart) == 0 {
		return fmt.Errorf("at least one rabbitmq task_start queue is required")
	}
	for i, binding := range config.RabbitMQ.TaskStart {
		if binding.Queue == "" {
			return fmt.Errorf("rabbitmq task_start[%d] queue is required", i)
		}
	}

	// 验证外部端点配置
	if config.Heartbeat.Endpoint == "" {
		return fmt.Errorf("heartbeat endpoint is required")
	}
	if config.ResultSink.ResultEndpoint == "" {
		return fmt.Errorf("result sink result_endpoint is required")
	}
	if config.ResultSink.UploadEndpoint == "" {
		return fmt.Errorf("result sink upload_endpoint is required")
	}

	// 验证检测任务配置
	if config.Inspection.LedgerLimit <= 0 {
		return fmt.Errorf("inspection ledger_limit must be positive: %d", config.Inspection.LedgerLimit)
	}

	// 验证日志配置
	validLogLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	if !contains(validLogLevels, config.Log.Level) {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, config.Log.Format) {
		return fmt.Errorf("invalid log format: %s", config.Log.Format)
	}

	validLogOutputs := []string{"stdout", "stderr", "file"}
	if !contains(validLogOutputs, config.Log.Output) {
		return fmt.Errorf("invalid log output: %s", config.Log.Output)
	}

	// 如果日志输出到文件，验证文件路径
	if config.Log.Output == "file" && config.Log.FilePath == "" {
		return fmt.Errorf("log file path is required when output is file")
	}

	// 验证APIKey配置
	if config.Security.Auth.EnableAPIKey && config.Security.Auth.APIKey == "" {
		return fmt.Errorf("api key is required when api key auth is enabled")
	}

	return nil
}

// applyDefaults 补齐缺省配置
func applyDefaults(config *Config) {
	if config == nil {
		return
	}

	if config.Inspection.LedgerLimit == 0 {
		config.Inspection.LedgerLimit = 4
	}
	if config.Inspection.MediaDir == "" {
		config.Inspection.MediaDir = "saved_frames"
	}
	if config.Inspection.QueueBuffer == 0 {
		config.Inspection.QueueBuffer = 64
	}
	if config.Heartbeat.Interval == 0 {
		config.Heartbeat.Interval = 60 * time.Second
	}
	if config.Security.Auth.APIKeyHeader == "" {
		config.Security.Auth.APIKeyHeader = "X-API-Key"
	}
}

// contains 检查切片是否包含指定元素
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	return GlobalConfig
}

// MustLoadConfig 加载配置，如果失败则panic
func MustLoadConfig(configPath, env string) *Config {
	config, err := LoadConfig(configPath, env)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	return config
}

// ReloadConfig 重新加载配置
func ReloadConfig() error {
	if GlobalConfig == nil {
		return fmt.Errorf("global config is not initialized")
	}

	// 重新加载配置
	config, err := LoadConfig("", "")
	if err != nil {
		return err
	}

	GlobalConfig = config
	return nil
}

// GetEnv 获取当前环境
func GetEnv() string {
	if GlobalConfig != nil {
		return GlobalConfig.App.Environment
	}
	return getEnvFromEnvironment()
}
