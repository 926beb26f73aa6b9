// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Engine   EngineConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MaxConcurrentTx int
}

// DSN is the keyword/value connection string used by lib/pq.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL is the postgres:// form accepted by pgx.
func (c DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

type AppConfig struct {
	DataDir         string
	OutputDir       string
	LogLevel        string
	LogFormat       string
	PipelineWorkers int
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	DashboardTTLSeconds int
}

// StorageConfig points at an S3-compatible bucket (MinIO, Sevalla, AWS).
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsJSON string
	FolderID        string
}

// EngineConfig is the raw replenishment policy as read from the environment.
// It is validated by the engine, not here.
type EngineConfig struct {
	ForecastHorizonDays  int
	LeadTimeDays         int
	SafetyStockFactor    float64
	MinOrderQuantity     float64
	MaxOrderQuantity     float64
	ConfidenceLevel      float64
	TrendThreshold       float64
	TopPriorityLimit     int
	PerformanceWindow    int
	ReorderThresholdDays int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())

		// Read from environment variables
		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_OUTPUT_DIR"))

		instance = fromViper(viper.GetViper())
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "demandflow")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	v.SetDefault("DB_MAX_CONCURRENT_TX", 10)
	v.SetDefault("APP_DATA_DIR", "./data/forecasts")
	v.SetDefault("APP_OUTPUT_DIR", "./data/output")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("PIPELINE_WORKERS", 4)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 60)
	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_PREFIX", "replenishment")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("FORECAST_HORIZON_DAYS", 30)
	v.SetDefault("LEAD_TIME_DAYS", 7)
	v.SetDefault("SAFETY_STOCK_FACTOR", 1.5)
	v.SetDefault("MIN_ORDER_QUANTITY", 10)
	v.SetDefault("MAX_ORDER_QUANTITY", 1000)
	v.SetDefault("CONFIDENCE_LEVEL", 0.95)
	v.SetDefault("TREND_THRESHOLD", 0.1)
	v.SetDefault("TOP_PRIORITY_LIMIT", 5)
	v.SetDefault("PERFORMANCE_WINDOW_DAYS", 14)
	v.SetDefault("REORDER_THRESHOLD_DAYS", 3)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Enabled:  v.GetBool("DB_ENABLED"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),

			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			MaxConcurrentTx: v.GetInt("DB_MAX_CONCURRENT_TX"),
		},
		App: AppConfig{
			DataDir:         v.GetString("APP_DATA_DIR"),
			OutputDir:       v.GetString("APP_OUTPUT_DIR"),
			LogLevel:        v.GetString("LOG_LEVEL"),
			LogFormat:       v.GetString("LOG_FORMAT"),
			PipelineWorkers: v.GetInt("PIPELINE_WORKERS"),
		},
		Cache: CacheConfig{
			Enabled:             v.GetBool("CACHE_ENABLED"),
			RedisURL:            v.GetString("REDIS_URL"),
			RedisHost:           v.GetString("REDIS_HOST"),
			RedisPort:           v.GetString("REDIS_PORT"),
			RedisPassword:       v.GetString("REDIS_PASSWORD"),
			RedisDB:             v.GetInt("REDIS_DB"),
			DashboardTTLSeconds: v.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("STORAGE_ENABLED"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			Prefix:    v.GetString("STORAGE_PREFIX"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
		},
		Drive: DriveConfig{
			CredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
			FolderID:        v.GetString("FORECAST_DRIVE_FOLDER_ID"),
		},
		Engine: EngineConfig{
			ForecastHorizonDays:  v.GetInt("FORECAST_HORIZON_DAYS"),
			LeadTimeDays:         v.GetInt("LEAD_TIME_DAYS"),
			SafetyStockFactor:    v.GetFloat64("SAFETY_STOCK_FACTOR"),
			MinOrderQuantity:     v.GetFloat64("MIN_ORDER_QUANTITY"),
			MaxOrderQuantity:     v.GetFloat64("MAX_ORDER_QUANTITY"),
			ConfidenceLevel:      v.GetFloat64("CONFIDENCE_LEVEL"),
			TrendThreshold:       v.GetFloat64("TREND_THRESHOLD"),
			TopPriorityLimit:     v.GetInt("TOP_PRIORITY_LIMIT"),
			PerformanceWindow:    v.GetInt("PERFORMANCE_WINDOW_DAYS"),
			ReorderThresholdDays: v.GetInt("REORDER_THRESHOLD_DAYS"),
		},
	}
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
