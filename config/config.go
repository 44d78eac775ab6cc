package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 存储后端
const (
	StorageRemote = "remote"
	StorageLocal  = "local"
)

// Config 应用全局配置结构体
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"db"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Institution InstitutionConfig `mapstructure:"institution"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Mail        MailConfig        `mapstructure:"mail"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 分钟
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// TxRetries 本地存储乐观事务（WATCH/MULTI）的最大重试次数
	TxRetries int `mapstructure:"tx_retries"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret                string        `mapstructure:"jwt_secret"`
	AccessTokenTTL           time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL          time.Duration `mapstructure:"refresh_token_ttl"`
	VerifyTokenTTL           time.Duration `mapstructure:"verify_token_ttl"`
	MinPasswordLength        int           `mapstructure:"min_password_length"`
	RequireEmailVerification bool          `mapstructure:"require_email_verification"`
}

// InstitutionConfig 机构邮箱规则
type InstitutionConfig struct {
	// RootDomain 根域名，接受 root 本身及其任意子域
	RootDomain string `mapstructure:"root_domain"`
}

// StorageConfig 课程空间存储后端选择
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // remote | local
}

// MailConfig 邮件配置
type MailConfig struct {
	Provider    string `mapstructure:"provider"` // console | sendgrid
	SendGridKey string `mapstructure:"sendgrid_key"`
	AppName     string `mapstructure:"app_name"`
	From        string `mapstructure:"from"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	AuthRequests   int           `mapstructure:"auth_requests"`
	AuthWindow     time.Duration `mapstructure:"auth_window"`
	SignInFailures int           `mapstructure:"signin_failures"`
	SignInWindow   time.Duration `mapstructure:"signin_window"`
	ResendWindow   time.Duration `mapstructure:"resend_window"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load 从 .env、配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 仅用于本地开发，不存在时忽略
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("加载 .env 失败: %w", err)
		}
	}

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "class_connect")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "America/New_York")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.tx_retries", 5)

	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "168h")
	v.SetDefault("auth.verify_token_ttl", "24h")
	v.SetDefault("auth.min_password_length", 6)
	v.SetDefault("auth.require_email_verification", false)

	v.SetDefault("institution.root_domain", "cuny.edu")

	v.SetDefault("storage.backend", StorageRemote)

	v.SetDefault("mail.provider", "console")
	v.SetDefault("mail.app_name", "Class Connect")
	v.SetDefault("mail.from", "no-reply@classconnect.app")

	v.SetDefault("rate_limit.auth_requests", 30)
	v.SetDefault("rate_limit.auth_window", "1m")
	v.SetDefault("rate_limit.signin_failures", 5)
	v.SetDefault("rate_limit.signin_window", "15m")
	v.SetDefault("rate_limit.resend_window", "1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("CLASSCONNECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if c.Institution.RootDomain == "" {
		return fmt.Errorf("配置校验失败: institution.root_domain 不能为空")
	}
	switch c.Storage.Backend {
	case StorageRemote, StorageLocal:
	default:
		return fmt.Errorf("配置校验失败: storage.backend 必须为 %q 或 %q，实际为 %q", StorageRemote, StorageLocal, c.Storage.Backend)
	}
	if c.Auth.MinPasswordLength <= 0 {
		c.Auth.MinPasswordLength = 6
	}
	return nil
}
