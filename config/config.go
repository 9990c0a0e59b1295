package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Crawl     CrawlConfig
	Search    SearchConfig
	LLM       LLMConfig
	Redis     RedisConfig
	S3        S3Config
	Scheduler SchedulerConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Driver   string // sqlite, postgres
	Path     string // sqlite file path
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CrawlConfig struct {
	ScraperBaseURL  string
	MaxReviews      int
	StoreWorkers    int
	ProviderWorkers int
	TaskTimeout     time.Duration // 0 = 제한 없음
	StaleDays       int
	PerSourceLimit  int // 0 = 전체
}

type SearchConfig struct {
	KakaoAPIKey string
	TopN        int
	RadiusM     int
}

type LLMConfig struct {
	Provider           string // ollama, openai
	BaseURL            string // ollama host
	OpenAIBaseURL      string
	APIKey             string
	Model              string
	Temperature        float64
	MaxReviewsPerStore int
	MaxWorkers         int
	Timeout            time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

type S3Config struct {
	Enabled         bool
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
}

type SchedulerConfig struct {
	RefreshCron     string
	RefreshKeywords []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Path:     getEnv("DB_PATH", "reviews.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "lunchmap"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Crawl: CrawlConfig{
			ScraperBaseURL:  getEnv("SCRAPER_BASE_URL", "http://localhost:9000"),
			MaxReviews:      parseInt(getEnv("CRAWL_MAX_REVIEWS", "10"), 10),
			StoreWorkers:    parseInt(getEnv("CRAWL_STORE_WORKERS", "5"), 5),
			ProviderWorkers: parseInt(getEnv("CRAWL_PROVIDER_WORKERS", "10"), 10),
			TaskTimeout:     parseDuration(getEnv("CRAWL_TASK_TIMEOUT", "0s"), 0),
			StaleDays:       parseInt(getEnv("STALE_DAYS", "30"), 30),
			PerSourceLimit:  parseInt(getEnv("PER_SOURCE_LIMIT", "0"), 0),
		},
		Search: SearchConfig{
			KakaoAPIKey: getEnv("KAKAO_API_KEY", ""),
			TopN:        parseInt(getEnv("TOP_N_STORES", "5"), 5),
			RadiusM:     parseInt(getEnv("SEARCH_RADIUS_M", "1000"), 1000),
		},
		LLM: LLMConfig{
			Provider:           getEnv("LLM_PROVIDER", "ollama"),
			BaseURL:            getEnv("OLLAMA_REMOTE_HOST", "http://localhost:11434"),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			Model:              getEnv("LLM_MODEL", "llama3.1"),
			Temperature:        parseFloat(getEnv("LLM_TEMPERATURE", "0.2"), 0.2),
			MaxReviewsPerStore: parseInt(getEnv("LLM_MAX_REVIEWS_PER_STORE", "60"), 60),
			MaxWorkers:         parseInt(getEnv("LLM_MAX_WORKERS", "6"), 6),
			Timeout:            parseDuration(getEnv("LLM_TIMEOUT", "120s"), 120*time.Second),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			TTL:      parseDuration(getEnv("CACHE_TTL", "1h"), time.Hour),
		},
		S3: S3Config{
			Enabled:         parseBool(getEnv("S3_MIRROR_ENABLED", "false")),
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			Bucket:          getEnv("AWS_S3_BUCKET", "lunchmap-store-images"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
		},
		Scheduler: SchedulerConfig{
			RefreshCron:     getEnv("REFRESH_CRON", "0 4 * * *"),
			RefreshKeywords: parseSlice(getEnv("REFRESH_KEYWORDS", "")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}

	if config.Crawl.StoreWorkers <= 0 {
		config.Crawl.StoreWorkers = 1
	}
	if config.Crawl.ProviderWorkers <= 0 {
		config.Crawl.ProviderWorkers = 1
	}
	if config.LLM.MaxWorkers <= 0 {
		config.LLM.MaxWorkers = 1
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
		)
	}
	// pragmas go through the DSN so every pooled connection gets them
	return fmt.Sprintf(
		"file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on",
		c.Path,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		log.Printf("Invalid float %s, using default %v", s, fallback)
		return fallback
	}
	return f
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
