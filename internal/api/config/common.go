package config

// Config 配置主体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Logstash LogstashConfig `mapstructure:"logstash"`
	Security SecurityConfig `mapstructure:"security"`
	Polling  PollingConfig  `mapstructure:"polling"`
	Platform PlatformConfig `mapstructure:"platform"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	InternalEndpoint string `mapstructure:"internal_endpoint"`
	ExternalEndpoint string `mapstructure:"external_endpoint"`
	AccessKey        string `mapstructure:"access_key"`
	SecretKey        string `mapstructure:"secret_key"`
	MainBucket       string `mapstructure:"main_bucket"`
	TempBucket       string `mapstructure:"temp_bucket"`
	InternalUseSSL   bool   `mapstructure:"internal_use_ssl"`
	UsePublicLink    bool   `mapstructure:"use_public_link"`
}

// LogstashConfig 远程日志配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// SecurityConfig 鉴权与凭据加密配置
type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	// TokenKey 平台令牌加密密钥，hex 编码 32 字节
	TokenKey string `mapstructure:"token_key"`
}

// PollingConfig 指标轮询配置
type PollingConfig struct {
	// Workers 单次轮询的并发抓取数
	Workers int `mapstructure:"workers"`
	// DailyAPIBudget 每用户每平台每日 API 调用预算
	DailyAPIBudget int `mapstructure:"daily_api_budget"`
	// PollSpec / FollowerSpec / CleanupSpec cron 表达式（含秒位）
	PollSpec     string `mapstructure:"poll_spec"`
	FollowerSpec string `mapstructure:"follower_spec"`
	CleanupSpec  string `mapstructure:"cleanup_spec"`
}

// PlatformConfig 各外部平台 API 接入配置
type PlatformConfig struct {
	Twitter  PlatformAPIConfig `mapstructure:"twitter"`
	LinkedIn PlatformAPIConfig `mapstructure:"linkedin"`
	Threads  PlatformAPIConfig `mapstructure:"threads"`
}

type PlatformAPIConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	UploadURL    string `mapstructure:"upload_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TimeoutSec   int    `mapstructure:"timeout_sec"`
}
