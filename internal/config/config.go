package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"HackathonSync/internal/model"
	"HackathonSync/internal/status"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig            `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig          `mapstructure:"database"` // PostgreSQL配置
	Sync     SyncConfig              `mapstructure:"sync"`     // 同步调度配置
	Sources  map[string]SourceConfig `mapstructure:"sources"`  // 各来源独立配置
	Dedup    DedupConfig             `mapstructure:"dedup"`    // 去重配置
	Status   StatusConfig            `mapstructure:"status"`   // 状态计算配置
	Redis    RedisConfig             `mapstructure:"redis"`    // 列表缓存
	Elastic  ElasticConfig           `mapstructure:"elastic"`  // 搜索排序
	CORS     CORSConfig              `mapstructure:"cors"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig PostgreSQL数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	LogLevel        string        `mapstructure:"log_level"`         // gorm 日志级别：silent/error/warn/info
}

// SyncConfig 同步调度配置
type SyncConfig struct {
	Cron           string   `mapstructure:"cron"`            // 全局同步Cron表达式
	PruneCron      string   `mapstructure:"prune_cron"`      // 过期数据清理Cron表达式
	EnabledSources []string `mapstructure:"enabled_sources"` // 启用的来源列表
	Concurrency    int      `mapstructure:"concurrency"`     // 同时抓取的来源数
	RetentionDays  int      `mapstructure:"retention_days"`  // 来源记录保留天数
	StaleHours     int      `mapstructure:"stale_hours"`     // 超过该时长未成功抓取的来源标记为过期
	RunOnStart     bool     `mapstructure:"run_on_start"`    // worker 启动时立即同步一次
}

// SourceConfig 单个来源的独立配置
type SourceConfig struct {
	BaseURL       string   `mapstructure:"base_url"`        // API基础地址
	Timeout       int      `mapstructure:"timeout"`         // 请求超时（秒）
	RetryCount    int      `mapstructure:"retry_count"`     // 重试次数
	Proxy         string   `mapstructure:"proxy"`           // 代理地址
	PageSize      int      `mapstructure:"page_size"`       // 每页条数
	MaxPages      int      `mapstructure:"max_pages"`       // 最多翻页数
	TrustRank     int      `mapstructure:"trust_rank"`      // 去重合并时的可信度，0 表示用内置默认值
	ExactTeamSize bool     `mapstructure:"exact_team_size"` // 单个人数表示固定人数
	UserAgent     string   `mapstructure:"user_agent"`
	Query         string   `mapstructure:"query"` // 搜索关键词（Devfolio 等搜索接口）
	Pages         []string `mapstructure:"pages"` // JSON-LD 页面地址（headless 抓取）
}

// DedupConfig 去重配置
type DedupConfig struct {
	TitleThreshold float64 `mapstructure:"title_threshold"` // 标题相似度阈值（0,1]
}

// StatusConfig 状态计算配置
type StatusConfig struct {
	MaxRegistrationGrace time.Duration `mapstructure:"max_registration_grace"` // 报名截止延后"已结束"的上限，负数不设上限
}

// RedisConfig 列表缓存
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ElasticConfig Elasticsearch 排序/索引
type ElasticConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	URLs     []string `mapstructure:"urls"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	Index    string   `mapstructure:"index"`
}

// CORSConfig 跨域
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("sync.cron", "0 */6 * * *")
	v.SetDefault("sync.prune_cron", "30 3 * * *")
	v.SetDefault("sync.concurrency", 3)
	v.SetDefault("sync.retention_days", 90)
	v.SetDefault("sync.stale_hours", 6)
	v.SetDefault("dedup.title_threshold", 0.92)
	v.SetDefault("status.max_registration_grace", status.DefaultMaxRegistrationGrace)
	v.SetDefault("redis.ttl", 10*time.Minute)
	v.SetDefault("elastic.index", "hackathons")
	v.SetDefault("cors.allow_origins", []string{"*"})
}

// LoadConfig 加载配置文件（dir 为空时读 ./config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig(dir string) (*Config, error) {
	// .env 可不存在
	_ = godotenv.Load()
	if dir == "" {
		dir = "./config"
	}
	return LoadConfigFrom(dir)
}

// LoadConfigFrom 从指定目录读取 config.yaml
func LoadConfigFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	v.SetTypeByDefaultValue(true)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("ELASTIC_URL"); v != "" {
		cfg.Elastic.URLs = strings.Split(v, ",")
	}
	if v := os.Getenv("ELASTIC_USERNAME"); v != "" {
		cfg.Elastic.Username = v
	}
	if v := os.Getenv("ELASTIC_PASSWORD"); v != "" {
		cfg.Elastic.Password = v
	}
	for name, sc := range cfg.Sources {
		if v := os.Getenv(strings.ToUpper(name) + "_PROXY"); v != "" {
			sc.Proxy = v
			cfg.Sources[name] = sc
		}
	}
}

// Source 取来源配置，未配置时返回零值
func (c *Config) Source(s model.Source) SourceConfig {
	return c.Sources[string(s)]
}

// TrustRanks 配置中显式给出的来源可信度
func (c *Config) TrustRanks() map[model.Source]int {
	ranks := make(map[model.Source]int)
	for name, sc := range c.Sources {
		if sc.TrustRank == 0 {
			continue
		}
		if s, ok := model.ParseSource(name); ok {
			ranks[s] = sc.TrustRank
		}
	}
	return ranks
}

// ExactTeamSizeSources 单个人数表示固定人数的来源
func (c *Config) ExactTeamSizeSources() []model.Source {
	var out []model.Source
	for name, sc := range c.Sources {
		if !sc.ExactTeamSize {
			continue
		}
		if s, ok := model.ParseSource(name); ok {
			out = append(out, s)
		}
	}
	return out
}

// StatusPolicy 状态计算参数
func (c *Config) StatusPolicy() status.Policy {
	return status.Policy{MaxRegistrationGrace: c.Status.MaxRegistrationGrace}
}

// GetGORMConfig 获取 gorm 配置
func (d *DatabaseConfig) GetGORMConfig() *gorm.Config {
	level := gormlogger.Warn
	switch strings.ToLower(d.LogLevel) {
	case "silent":
		level = gormlogger.Silent
	case "error":
		level = gormlogger.Error
	case "info":
		level = gormlogger.Info
	}
	return &gorm.Config{Logger: gormlogger.Default.LogMode(level)}
}
