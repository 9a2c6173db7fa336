// Package config 提供配置加载和管理功能
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var globalConfig *Config

// Config 应用程序配置结构
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Flowise   FlowiseConfig   `yaml:"flowise"`
	History   HistoryConfig   `yaml:"history"`
	Redis     RedisConfig     `yaml:"redis"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Static    StaticConfig    `yaml:"static"`
	Session   SessionConfig   `yaml:"session"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Log       LogConfig       `yaml:"log"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// ServerConfig HTTP服务器配置
type ServerConfig struct {
	Host string `yaml:"host"` // 服务器监听地址
	Port int    `yaml:"port"` // 服务器监听端口
	Mode string `yaml:"mode"` // gin运行模式：debug/release/test
}

// FlowiseConfig 对话端点配置
type FlowiseConfig struct {
	URL         string        `yaml:"url"`          // 主对话端点基础地址（不含 /chat）
	FallbackURL string        `yaml:"fallback_url"` // 主端点连接失败时的备用地址
	Timeout     time.Duration `yaml:"timeout"`      // 请求超时，0 表示不限制
}

// HistoryConfig 对话记录存储配置
type HistoryConfig struct {
	Driver      string `yaml:"driver"`       // file/redis/sqlite
	Dir         string `yaml:"dir"`          // file 模式下的存储目录
	DefaultPath string `yaml:"default_path"` // 未指定 history-path 时使用的路径
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string        `yaml:"addr"`     // Redis地址
	Password string        `yaml:"password"` // Redis密码
	DB       int           `yaml:"db"`       // Redis数据库编号
	TTL      time.Duration `yaml:"ttl"`      // 对话记录过期时间，0 表示不过期
}

// SQLiteConfig SQLite配置
type SQLiteConfig struct {
	Path string `yaml:"path"` // 数据库文件路径，支持 :memory:
}

// StaticConfig 静态资源配置
type StaticConfig struct {
	Prefix string `yaml:"prefix"` // URL前缀
	Dir    string `yaml:"dir"`    // 打包产物目录
}

// SessionConfig 会话配置
type SessionConfig struct {
	IdleTTL       time.Duration `yaml:"idle_ttl"`       // 会话空闲回收时间
	SweepInterval time.Duration `yaml:"sweep_interval"` // 回收检查间隔
}

// CatalogConfig 商品目录配置
type CatalogConfig struct {
	File string `yaml:"file"` // 可选的YAML商品目录文件，为空时使用内置目录
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`  // debug/info/warn/error
	Format string `yaml:"format"` // console/json
}

// WebSocketConfig WebSocket配置
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size"`  // 读缓冲区大小
	WriteBufferSize int           `yaml:"write_buffer_size"` // 写缓冲区大小
	PingPeriod      time.Duration `yaml:"ping_period"`       // 心跳间隔
	PongWait        time.Duration `yaml:"pong_wait"`         // 等待Pong响应的超时时间
}

// GetConfig 获取全局配置实例
func GetConfig() *Config {
	return globalConfig
}

// Default 返回只包含默认值的配置
func Default() *Config {
	var config Config
	applyDefaults(&config)
	return &config
}

// Load 从文件加载配置，随后应用 .env 与环境变量覆盖
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return finalize(&config)
}

// LoadOrDefault 配置文件不存在时退回默认配置
func LoadOrDefault(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return finalize(&Config{})
	}
	return Load(filename)
}

func finalize(config *Config) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()
	applyEnv(config)
	applyDefaults(config)

	// 验证配置
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("配置验证失败: %w", err)
	}

	// 设置全局配置
	globalConfig = config

	return config, nil
}

// applyEnv 使用环境变量覆盖配置
func applyEnv(config *Config) {
	if v := os.Getenv("CHAT_API_URL"); v != "" {
		config.Flowise.URL = v
	}
	if v := os.Getenv("CHAT_FALLBACK_URL"); v != "" {
		config.Flowise.FallbackURL = v
	}
	if v := os.Getenv("HISTORY_DRIVER"); v != "" {
		config.History.Driver = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		config.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		config.Redis.Password = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		config.SQLite.Path = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
}

// applyDefaults 设置默认值
func applyDefaults(config *Config) {
	if config.Server.Host == "" {
		config.Server.Host = "0.0.0.0"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 5533
	}
	if config.Server.Mode == "" {
		config.Server.Mode = "release"
	}
	if config.Flowise.URL == "" {
		config.Flowise.URL = DefaultFlowiseURL
	}
	if config.History.Driver == "" {
		config.History.Driver = HistoryDriverFile
	}
	if config.History.Dir == "" {
		config.History.Dir = "."
	}
	if config.History.DefaultPath == "" {
		config.History.DefaultPath = "/history.json"
	}
	if config.SQLite.Path == "" {
		config.SQLite.Path = "data/history.sqlite"
	}
	if config.Static.Prefix == "" {
		config.Static.Prefix = "/flowise"
	}
	if config.Static.Dir == "" {
		config.Static.Dir = "dist"
	}
	if config.Session.IdleTTL == 0 {
		config.Session.IdleTTL = 30 * time.Minute
	}
	if config.Session.SweepInterval == 0 {
		config.Session.SweepInterval = time.Minute
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "console"
	}
	if config.WebSocket.ReadBufferSize == 0 {
		config.WebSocket.ReadBufferSize = 1024
	}
	if config.WebSocket.WriteBufferSize == 0 {
		config.WebSocket.WriteBufferSize = 1024
	}
	if config.WebSocket.PingPeriod == 0 {
		config.WebSocket.PingPeriod = 30 * time.Second
	}
	if config.WebSocket.PongWait == 0 {
		config.WebSocket.PongWait = 60 * time.Second
	}
}

// validateConfig 验证配置是否有效
func validateConfig(config *Config) error {
	// 验证服务器配置
	if config.Server.Port <= 0 {
		return ErrInvalidPort
	}

	// 验证对话端点配置
	if config.Flowise.URL == "" {
		return ErrEmptyChatURL
	}
	if config.Flowise.Timeout < 0 {
		return fmt.Errorf("对话端点超时不能为负数")
	}

	// 验证对话记录存储配置
	switch config.History.Driver {
	case HistoryDriverFile:
		if config.History.Dir == "" {
			return fmt.Errorf("对话记录目录不能为空")
		}
	case HistoryDriverRedis:
		if config.Redis.Addr == "" {
			return ErrEmptyRedisAddr
		}
	case HistoryDriverSQLite:
		if config.SQLite.Path == "" {
			return fmt.Errorf("SQLite数据库路径不能为空")
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownHistoryDriver, config.History.Driver)
	}

	return nil
}
