// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	SubmitPerMinute int           `yaml:"submit_per_minute"` // per-client submit limit, 0 disables
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

// RedisConfig describes a Redis endpoint. URL accepts either host:port or a redis:// URL.
type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type NewsConfig struct {
	FreshFor        time.Duration `yaml:"fresh_for"`
	DailyQuota      int           `yaml:"daily_quota"`
	CategoryLimit   int           `yaml:"category_limit"`
	FetchLimit      int           `yaml:"fetch_limit"`
	SummaryTTL      time.Duration `yaml:"summary_ttl"`
	DefaultLanguage string        `yaml:"default_language"`
}

type ProviderConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type ProvidersConfig struct {
	NewsAPI    ProviderConfig `yaml:"newsapi"`    // metered primary
	GNews      ProviderConfig `yaml:"gnews"`      // fallback A
	TheNewsAPI ProviderConfig `yaml:"thenewsapi"` // fallback B
}

type ClassifierConfig struct {
	MLEndpoint      string        `yaml:"ml_endpoint"`
	MLAPIKey        string        `yaml:"ml_api_key"`
	OpenAIKey       string        `yaml:"openai_key"`
	OpenAIModel     string        `yaml:"openai_model"`
	GeminiKey       string        `yaml:"gemini_key"`
	GeminiURL       string        `yaml:"gemini_url"`
	GeminiModel     string        `yaml:"gemini_model"`
	MaxInputTokens  int           `yaml:"max_input_tokens"`
	Timeout         time.Duration `yaml:"timeout"`
	ConcurrentLimit int           `yaml:"concurrent_limit"` // max concurrent classifier calls
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

type JobsConfig struct {
	Workers        int           `yaml:"workers"`
	RatePerSecond  int           `yaml:"rate_per_second"`
	MaxAttempts    int           `yaml:"max_attempts"`
	BackoffBase    time.Duration `yaml:"backoff_base"`
	Retention      time.Duration `yaml:"retention"`
	RetentionCount int           `yaml:"retention_count"`
	LockTTL        time.Duration `yaml:"lock_ttl"`
	PromoteEvery   time.Duration `yaml:"promote_every"`
}

type AdminConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Redis      RedisConfig      `yaml:"redis"`
	Queue      RedisConfig      `yaml:"queue"`
	Database   DatabaseConfig   `yaml:"database"`
	News       NewsConfig       `yaml:"news"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Jobs       JobsConfig       `yaml:"jobs"`
	Admin      AdminConfig      `yaml:"admin"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the optional YAML file at path, loads .env if present,
// applies environment overrides and fills defaults.
// A missing file is not an error; every setting can come from the environment.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setStr(&cfg.Redis.URL, "REDIS_URL")
	setStr(&cfg.Queue.URL, "QUEUE_URL")
	setStr(&cfg.Database.URL, "DATABASE_URL")
	setStr(&cfg.Providers.NewsAPI.APIKey, "NEWSAPI_KEY")
	setStr(&cfg.Providers.GNews.APIKey, "GNEWS_API_KEY")
	setStr(&cfg.Providers.TheNewsAPI.APIKey, "THENEWSAPI_KEY")
	setStr(&cfg.Classifier.MLEndpoint, "ML_ENDPOINT")
	setStr(&cfg.Classifier.MLAPIKey, "ML_API_KEY")
	setStr(&cfg.Classifier.OpenAIKey, "OPENAI_API_KEY")
	setStr(&cfg.Classifier.GeminiKey, "GEMINI_API_KEY")
	setStr(&cfg.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	setStr(&cfg.Admin.JWTSecret, "ADMIN_JWT_SECRET")
	setStr(&cfg.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Telegram.ChatID = id
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("NEWS_DAILY_QUOTA"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.News.DailyQuota = n
		}
	}
}

func setStr(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout <= 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}

	if cfg.News.FreshFor <= 0 {
		cfg.News.FreshFor = 5 * time.Minute
	}
	if cfg.News.DailyQuota <= 0 {
		cfg.News.DailyQuota = 100
	}
	if cfg.News.CategoryLimit <= 0 {
		cfg.News.CategoryLimit = 20
	}
	if cfg.News.FetchLimit <= 0 {
		cfg.News.FetchLimit = 50
	}
	if cfg.News.SummaryTTL <= 0 {
		cfg.News.SummaryTTL = 7 * 24 * time.Hour
	}
	if cfg.News.DefaultLanguage == "" {
		cfg.News.DefaultLanguage = "en"
	}
	for _, p := range []*ProviderConfig{&cfg.Providers.NewsAPI, &cfg.Providers.GNews, &cfg.Providers.TheNewsAPI} {
		if p.Timeout <= 0 {
			p.Timeout = 10 * time.Second
		}
	}

	if cfg.Classifier.OpenAIModel == "" {
		cfg.Classifier.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.Classifier.GeminiModel == "" {
		cfg.Classifier.GeminiModel = "gemini-2.0-flash"
	}
	if cfg.Classifier.MaxInputTokens <= 0 {
		cfg.Classifier.MaxInputTokens = 2000
	}
	if cfg.Classifier.Timeout <= 0 {
		cfg.Classifier.Timeout = 20 * time.Second
	}
	if cfg.Classifier.ConcurrentLimit <= 0 {
		cfg.Classifier.ConcurrentLimit = 16
	}

	if cfg.Jobs.Workers <= 0 {
		cfg.Jobs.Workers = 50
	}
	if cfg.Jobs.RatePerSecond <= 0 {
		cfg.Jobs.RatePerSecond = 100
	}
	if cfg.Jobs.MaxAttempts <= 0 {
		cfg.Jobs.MaxAttempts = 3
	}
	if cfg.Jobs.BackoffBase <= 0 {
		cfg.Jobs.BackoffBase = time.Second
	}
	if cfg.Jobs.Retention <= 0 {
		cfg.Jobs.Retention = 24 * time.Hour
	}
	if cfg.Jobs.RetentionCount <= 0 {
		cfg.Jobs.RetentionCount = 1000
	}
	if cfg.Jobs.LockTTL <= 0 {
		cfg.Jobs.LockTTL = 30 * time.Second
	}
	if cfg.Jobs.PromoteEvery <= 0 {
		cfg.Jobs.PromoteEvery = 250 * time.Millisecond
	}

	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 30 * time.Minute
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}
	if cfg.Jobs.MaxAttempts > 10 {
		return errors.New("jobs.max_attempts must be <= 10")
	}
	if cfg.Server.SubmitPerMinute < 0 {
		return errors.New("server.submit_per_minute must be >= 0")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
