package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/ayxworxfr/scada_web/pkg/cron"
	"gopkg.in/yaml.v3"
)

// Config 结构体用于存储所有配置
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Web           WebConfig           `yaml:"web"`
	Database      DatabaseConfig      `yaml:"database"`
	JWT           JWTConfig           `yaml:"jwt"`
	Session       SessionConfig       `yaml:"session"`
	ScadaServer   ScadaServerConfig   `yaml:"scada_server"`
	Logger        LoggerConfig        `yaml:"logger"`
	OpenTelemetry OpenTelemetryConfig `yaml:"opentelemetry"`
	Sentinel      SentinelFileConfig  `yaml:"sentinel"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Crypter       CrypterConfig       `yaml:"crypter"`
	Tasks         []cron.TaskConfig   `yaml:"tasks"`
}

// ServerConfig 存储服务器相关配置
type ServerConfig struct {
	Port int `yaml:"port"`
}

// WebConfig Web 应用目录与界面语言
type WebConfig struct {
	AppDir  string `yaml:"app_dir"`
	Culture string `yaml:"culture"`
	// WatchConfig 为 true 时监听 config 目录，文件变化后立即刷新
	WatchConfig bool `yaml:"watch_config"`
}

// DatabaseConfig 存储数据库相关配置
type DatabaseConfig struct {
	Driver          string `yaml:"driver"` // mysql / sqlite3
	Path            string `yaml:"path"`   // sqlite3 数据库文件
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // 以秒为单位
	ShowSQL         bool   `yaml:"show_sql"`
}

// NewDatabaseConfig 创建一个带有默认值的 DatabaseConfig
func NewDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite3",
		Path:            "scada_web.db",
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: 3600, // 默认1小时
		ShowSQL:         false,
	}
}

// JWTConfig 存储 JWT 相关配置
type JWTConfig struct {
	Secret          string `yaml:"secret"`
	AccessTokenExp  string `yaml:"access_token_exp"`
	RefreshTokenExp string `yaml:"refresh_token_exp"`
}

// SessionConfig 会话存储配置
type SessionConfig struct {
	Store         string `yaml:"store"` // memory / redis / bolt
	BoltPath      string `yaml:"bolt_path"`
	TTL           string `yaml:"ttl"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix"`
}

// NewSessionConfig 默认使用内存存储
func NewSessionConfig() SessionConfig {
	return SessionConfig{
		Store:       "memory",
		TTL:         "30m",
		RedisAddr:   "localhost:6379",
		RedisPrefix: "scada_web",
		BoltPath:    "sessions.db",
	}
}

// TTLDuration 会话空闲超时，格式错误时取 30 分钟
func (c SessionConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// ScadaServerConfig 远程 SCADA 服务器（表示文件来源）
type ScadaServerConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // 秒
	Retries int    `yaml:"retries"`
}

// NewScadaServerConfig 创建默认配置
func NewScadaServerConfig() ScadaServerConfig {
	return ScadaServerConfig{
		BaseURL: "http://localhost:10000",
		Timeout: 5,
		Retries: 2,
	}
}

// TimeoutDuration 超时时间
func (c ScadaServerConfig) TimeoutDuration() time.Duration {
	if c.Timeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// LoggerConfig 存储日志相关配置
type LoggerConfig struct {
	LogFile    string `yaml:"log_file"`
	Level      string `yaml:"level"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
	Console    bool   `yaml:"console"`
}

// SentinelFileConfig 指向哨兵规则文件
type SentinelFileConfig struct {
	Enable     bool   `yaml:"enable"`
	ConfigPath string `yaml:"config_path"`
}

// RateLimitConfig 登录接口按 IP 限流
type RateLimitConfig struct {
	LoginRPS   int `yaml:"login_rps"`
	LoginBurst int `yaml:"login_burst"`
	// Store 为 redis 且会话也存 Redis 时多实例共享令牌桶，否则按进程内存限流
	Store string `yaml:"store"`
}

// CrypterConfig 密码摘要密钥
type CrypterConfig struct {
	Key string `yaml:"key"`
}

var (
	config *Config
	once   sync.Once
)

// Default 返回全部为默认值的配置
func Default() *Config {
	return &Config{
		Server:        ServerConfig{Port: 8080},
		Web:           WebConfig{AppDir: ".", Culture: "en-GB"},
		Database:      NewDatabaseConfig(), // 使用带有默认值的 DatabaseConfig
		JWT:           JWTConfig{AccessTokenExp: "2h", RefreshTokenExp: "7d"},
		Session:       NewSessionConfig(),
		ScadaServer:   NewScadaServerConfig(),
		OpenTelemetry: NewOpenTelemetryConfig(),
		Sentinel:      SentinelFileConfig{ConfigPath: "conf/sentinel.yaml"},
		RateLimit:     RateLimitConfig{LoginRPS: 1, LoginBurst: 5, Store: "memory"},
	}
}

// Load 加载并解析 YAML 配置文件
func Load(filename string) (*Config, error) {
	var err error
	once.Do(func() {
		config = Default()
		err = loadFile(filename, config)
		applyEnv(config)
	})
	return config, err
}

// Parse 解析 YAML 数据，不影响全局配置
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// applyEnv 优先使用环境变量的值
func applyEnv(cfg *Config) {
	if instanceID := os.Getenv("INSTANCE_ID"); instanceID != "" {
		cfg.OpenTelemetry.Service = instanceID
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.OpenTelemetry.Endpoint = endpoint
	}
	if protocol := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"); protocol != "" {
		cfg.OpenTelemetry.Protocol = protocol
	}
	if dir := os.Getenv("SCADA_WEB_DIR"); dir != "" {
		cfg.Web.AppDir = dir
	}
	if addr := os.Getenv("SCADA_REDIS_ADDR"); addr != "" {
		cfg.Session.RedisAddr = addr
	}
	if port, err := strconv.Atoi(os.Getenv("SCADA_WEB_PORT")); err == nil && port > 0 {
		cfg.Server.Port = port
	}
}

// loadFile 读取并解析 YAML 文件
func loadFile(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Get 返回已加载的配置
func Get() *Config {
	return config
}

func GetCronTasks() []cron.TaskConfig {
	if config != nil {
		return config.Tasks
	}

	return nil
}

func GetAppPort() int {
	if config != nil {
		return config.Server.Port
	}

	return 0
}
