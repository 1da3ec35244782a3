package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix 环境变量前缀，嵌套层级用双下划线分隔，例如 NEWSBOARD_DATABASE__URL
const EnvPrefix = "NEWSBOARD_"

// AppConfig 应用配置
type AppConfig struct {
	Env       string          `koanf:"env"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	JWT       JWTConfig       `koanf:"jwt"`
	Redis     RedisConfig     `koanf:"redis"`
	Ranking   RankingConfig   `koanf:"ranking"`
	Crawler   CrawlerConfig   `koanf:"crawler"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Host        string   `koanf:"host"`
	Port        int      `koanf:"port"`
	Mode        string   `koanf:"mode"` // debug, release, test
	CORSOrigins []string `koanf:"cors_origins"`
}

type DatabaseConfig struct {
	URL          string `koanf:"url"`
	LogLevel     string `koanf:"log_level"` // silent, error, warn, info
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	MaxLifetime  int    `koanf:"max_lifetime"` // 秒
}

type JWTConfig struct {
	Secret     string        `koanf:"secret"`
	AccessTTL  time.Duration `koanf:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl"`
}

// RedisConfig 为空 Addr 时使用进程内的令牌吊销表
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type RankingConfig struct {
	// cron 表达式（带秒），为空则不在进程内触发热度重算
	RecomputeSchedule string `koanf:"recompute_schedule"`
}

type CrawlerConfig struct {
	Enabled bool          `koanf:"enabled"`
	Timeout time.Duration `koanf:"timeout"`
}

type RateLimitConfig struct {
	VotesPerMinute int `koanf:"votes_per_minute"`
	Burst          int `koanf:"burst"`
}

type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text, json
}

// Load 读取 .env、YAML 配置文件和环境变量，后者覆盖前者。
// configPath 为空或文件不存在时只使用环境变量和默认值。
func Load(configPath string) (*AppConfig, error) {
	// .env 不存在不算错误，和线上直接注入环境变量的部署方式保持一致
	_ = godotenv.Load()

	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("加载配置文件失败: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("加载环境变量失败: %w", err)
	}

	conf := &AppConfig{}
	if err := k.Unmarshal("", conf); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyLegacyEnv(conf)
	setDefaults(conf)

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// envKey 把 NEWSBOARD_DATABASE__MAX_OPEN_CONNS 转成 database.max_open_conns
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// applyLegacyEnv 兼容 DATABASE_URL / PORT 这类平台注入的变量
func applyLegacyEnv(c *AppConfig) {
	if c.Database.URL == "" {
		c.Database.URL = os.Getenv("DATABASE_URL")
	}
	if c.Server.Port == 0 {
		if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
			c.Server.Port = p
		}
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = os.Getenv("JWT_SECRET")
	}
}

func setDefaults(c *AppConfig) {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Database.URL == "" {
		c.Database.URL = "host=localhost user=postgres password=postgres dbname=newsboard port=5432 sslmode=disable TimeZone=UTC"
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 50
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.MaxLifetime == 0 {
		c.Database.MaxLifetime = 3600
	}
	if c.JWT.Secret == "" && c.Env != "production" {
		c.JWT.Secret = "development_secret_key"
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = time.Hour
	}
	if c.JWT.RefreshTTL == 0 {
		c.JWT.RefreshTTL = 7 * 24 * time.Hour
	}
	if c.Crawler.Timeout == 0 {
		c.Crawler.Timeout = 15 * time.Second
	}
	if c.RateLimit.VotesPerMinute == 0 {
		c.RateLimit.VotesPerMinute = 60
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate 检查无法用默认值兜底的配置
func (c *AppConfig) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret 未配置")
	}
	if c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		return fmt.Errorf("jwt.access_ttl (%s) 必须小于 jwt.refresh_ttl (%s)", c.JWT.AccessTTL, c.JWT.RefreshTTL)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 无效: %d", c.Server.Port)
	}
	return nil
}

// Addr 返回 gin 监听地址
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
