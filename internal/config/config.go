package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config 应用配置结构体 [这里的字段和配置文件中一级字段保持一致，否则会没有值]
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`           // HTTP服务器配置(状态查看API)
	Database   DatabaseConfig   `yaml:"database" mapstructure:"database"`       // 持久化存储配置
	Log        LogConfig        `yaml:"log" mapstructure:"log"`                 // 日志配置
	RabbitMQ   RabbitMQConfig   `yaml:"rabbitmq" mapstructure:"rabbitmq"`       // 消息队列配置(入站通道)
	Heartbeat  HeartbeatConfig  `yaml:"heartbeat" mapstructure:"heartbeat"`     // 心跳上报配置
	ResultSink ResultSinkConfig `yaml:"result_sink" mapstructure:"result_sink"` // 结果下发配置
	Inspection InspectionConfig `yaml:"inspection" mapstructure:"inspection"`   // 检测任务配置
	Security   SecurityConfig   `yaml:"security" mapstructure:"security"`       // 安全配置
	App        AppConfig        `yaml:"app" mapstructure:"app"`                 // 应用配置
}

// ServerConfig HTTP服务器配置
type ServerConfig struct {
	Host           string        `yaml:"host" mapstructure:"host"`                         // 服务器主机地址
	Port           int           `yaml:"port" mapstructure:"port"`                         // 服务器端口
	Mode           string        `yaml:"mode" mapstructure:"mode"`                         // 运行模式: debug, release, test
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`         // 读取超时时间
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`       // 写入超时时间
	IdleTimeout    time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`         // 空闲超时时间
	MaxHeaderBytes int           `yaml:"max_header_bytes" mapstructure:"max_header_bytes"` // 最大请求头字节数
}

// DatabaseConfig 持久化存储配置
// 工单上下文与产物台账都落在关系库中；单机产线控制器用 sqlite，多产线部署用 mysql
type DatabaseConfig struct {
	Driver string       `yaml:"driver" mapstructure:"driver"` // 存储驱动: sqlite, mysql
	SQLite SQLiteConfig `yaml:"sqlite" mapstructure:"sqlite"` // SQLite配置
	MySQL  MySQLConfig  `yaml:"mysql" mapstructure:"mysql"`   // MySQL配置
	Redis  RedisConfig  `yaml:"redis" mapstructure:"redis"`   // Redis配置(可选状态镜像)
}

// SQLiteConfig SQLite数据库配置
type SQLiteConfig struct {
	Path     string `yaml:"path" mapstructure:"path"`           // 数据库文件路径
	LogLevel string `yaml:"log_level" mapstructure:"log_level"` // 日志级别
}

// MySQLConfig MySQL数据库配置
type MySQLConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`                             // 数据库主机
	Port            int           `yaml:"port" mapstructure:"port"`                             // 数据库端口
	Username        string        `yaml:"username" mapstructure:"username"`                     // 用户名
	Password        string        `yaml:"password" mapstructure:"password"`                     // 密码
	Database        string        `yaml:"database" mapstructure:"database"`                     // 数据库名
	Charset         string        `yaml:"charset" mapstructure:"charset"`                       // 字符集
	ParseTime       bool          `yaml:"parse_time" mapstructure:"parse_time"`                 // 是否解析时间
	Loc             string        `yaml:"loc" mapstructure:"loc"`                               // 时区
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`         // 最大空闲连接数
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`         // 最大打开连接数
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`   // 连接最大生存时间
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" mapstructure:"conn_max_idle_time"` // 连接最大空闲时间
	LogLevel        string        `yaml:"log_level" mapstructure:"log_level"`                   // 日志级别
}

// RedisConfig Redis配置
// 状态镜像为可选能力，供不触达本进程的外部看板轮询使用
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`               // 是否启用状态镜像
	Host         string        `yaml:"host" mapstructure:"host"`                     // Redis主机
	Port         int           `yaml:"port" mapstructure:"port"`                     // Redis端口
	Password     string        `yaml:"password" mapstructure:"password"`             // Redis密码
	Database     int           `yaml:"database" mapstructure:"database"`             // Redis数据库索引
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`           // 连接池大小
	MinIdleConns int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"` // 最小空闲连接数
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`     // 连接超时
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`     // 读取超时
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`   // 写入超时
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`             // 日志级别
	Format     string `yaml:"format" mapstructure:"format"`           // 日志格式: json, text
	Output     string `yaml:"output" mapstructure:"output"`           // 输出方式: stdout, stderr, file
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`     // 日志文件路径
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // 单个日志文件最大大小(MB)
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // 保留的日志文件数量
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // 日志文件保留天数
	Compress   bool   `yaml:"compress" mapstructure:"compress"`       // 是否压缩日志文件
	Caller     bool   `yaml:"caller" mapstructure:"caller"`           // 是否显示调用者信息
}

// RabbitMQConfig 消息队列配置
// 产线侧 Node-RED 与上游 Web 系统通过 RabbitMQ 向本服务投递消息
type RabbitMQConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`         // RabbitMQ主机
	Port     int    `yaml:"port" mapstructure:"port"`         // RabbitMQ端口
	Username string `yaml:"username" mapstructure:"username"` // 用户名
	Password string `yaml:"password" mapstructure:"password"` // 密码
	VHost    string `yaml:"vhost" mapstructure:"vhost"`       // 虚拟主机

	// 工单上下文更新队列(上游Web系统 -> 本服务)
	OrderUpdate QueueBinding `yaml:"order_update" mapstructure:"order_update"`
	// 任务启动队列(Node-RED -> 本服务)，产线可按工位挂多条队列
	TaskStart []QueueBinding `yaml:"task_start" mapstructure:"task_start"`
}

// QueueBinding 队列绑定配置(交换机/队列/路由键三元组)
type QueueBinding struct {
	Exchange     string `yaml:"exchange" mapstructure:"exchange"`           // 交换机名称
	ExchangeType string `yaml:"exchange_type" mapstructure:"exchange_type"` // 交换机类型: direct, fanout, topic
	Queue        string `yaml:"queue" mapstructure:"queue"`                 // 队列名称
	RoutingKey   string `yaml:"routing_key" mapstructure:"routing_key"`     // 路由键
}

// HeartbeatConfig 心跳上报配置
type HeartbeatConfig struct {
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"` // 心跳上报地址
	Interval time.Duration `yaml:"interval" mapstructure:"interval"` // 心跳间隔
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`   // 单次上报超时
}

// ResultSinkConfig 结果下发配置
type ResultSinkConfig struct {
	ResultEndpoint string        `yaml:"result_endpoint" mapstructure:"result_endpoint"` // 任务结果下发地址(Node-RED)
	UploadEndpoint string        `yaml:"upload_endpoint" mapstructure:"upload_endpoint"` // NG产物上传地址(人工复核通道)
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`                 // 请求超时
}

// InspectionConfig 检测任务配置
type InspectionConfig struct {
	LedgerLimit     int           `yaml:"ledger_limit" mapstructure:"ledger_limit"`         // 每种任务保留的产物记录条数
	MediaDir        string        `yaml:"media_dir" mapstructure:"media_dir"`               // 产物文件目录(媒体服务根目录)
	QueueBuffer     int           `yaml:"queue_buffer" mapstructure:"queue_buffer"`         // 任务队列初始容量(仅预分配，队列本身无上界)
	AnalyzerTimeout time.Duration `yaml:"analyzer_timeout" mapstructure:"analyzer_timeout"` // 单次分析超时，0表示不限制(参考系统行为)
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"` // 认证配置
	CORS CORSConfig `yaml:"cors" mapstructure:"cors"` // CORS配置
}

// AuthConfig 认证中间件配置
// 只读API使用APIKey认证，产线内网部署可关闭
type AuthConfig struct {
	EnableAPIKey bool     `yaml:"enable_api_key" mapstructure:"enable_api_key"` // 是否启用APIKey认证
	APIKey       string   `yaml:"api_key" mapstructure:"api_key"`               // API密钥
	APIKeyHeader string   `yaml:"api_key_header" mapstructure:"api_key_header"` // API密钥请求头
	SkipPaths    []string `yaml:"skip_paths" mapstructure:"skip_paths"`         // 跳过认证的路径
}

// CORSConfig CORS配置
type CORSConfig struct {
	Enabled         bool     `yaml:"enabled" mapstructure:"enabled"`                     // 是否启用CORS
	AllowAllOrigins bool     `yaml:"allow_all_origins" mapstructure:"allow_all_origins"` // 是否允许所有源
	AllowOrigins    []string `yaml:"allow_origins" mapstructure:"allow_origins"`         // 允许的源
	AllowMethods    []string `yaml:"allow_methods" mapstructure:"allow_methods"`         // 允许的方法
	AllowHeaders    []string `yaml:"allow_headers" mapstructure:"allow_headers"`         // 允许的请求头
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`               // 应用名称
	Version     string `yaml:"version" mapstructure:"version"`         // 应用版本
	Environment string `yaml:"environment" mapstructure:"environment"` // 运行环境
	Debug       bool   `yaml:"debug" mapstructure:"debug"`             // 是否调试模式
	Timezone    string `yaml:"timezone" mapstructure:"timezone"`       // 时区
}

// GetAddress 获取服务器完整地址
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IsDevelopment 判断是否为开发环境
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction 判断是否为生产环境
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// IsTest 判断是否为测试环境
func (a *AppConfig) IsTest() bool {
	return a.Environment == "test"
}

// GetMySQLDSN 获取MySQL数据源名称
func (m *MySQLConfig) GetMySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=%s",
		m.Username, m.Password, m.Host, m.Port, m.Database, m.Charset, m.ParseTime, m.Loc)
}

// GetRedisAddress 获取Redis地址
func (r *RedisConfig) GetRedisAddress() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GetAMQPURL 获取RabbitMQ连接地址
func (r *RabbitMQConfig) GetAMQPURL() string {
	vhost := r.VHost
	if vhost == "" || vhost == "/" {
		// 默认虚拟主机
		return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.Username, r.Password, r.Host, r.Port)
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d/%s", r.Username, r.Password, r.Host, r.Port, url.PathEscape(vhost))
}
