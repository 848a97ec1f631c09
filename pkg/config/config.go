package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage drivers selectable through STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Storage   StorageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Bootstrap BootstrapConfig
	Audit     AuditConfig
	Rounds    RoundsConfig
	Dashboard DashboardConfig
	Tracking  TrackingConfig
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

// RedisConfig locates the dashboard cache. URL, when set, wins over the
// discrete fields.
type RedisConfig struct {
	URL         string
	Host        string
	Port        int
	Password    string
	DB          int
	DialTimeout time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BootstrapConfig describes the admin account seeded at startup.
type BootstrapConfig struct {
	Username string
	Password string
	Email    string
	FullName string
	Phone    string
}

// AuditConfig sizes the asynchronous activity log queue.
type AuditConfig struct {
	Workers int
	Buffer  int
}

// RoundsConfig tunes the bus round workflow.
type RoundsConfig struct {
	StrictTransitions bool
}

// DashboardConfig governs dashboard aggregation and cache tuning.
type DashboardConfig struct {
	RecentNotifications int
	CacheEnabled        bool
	CacheTTL            time.Duration
}

// TrackingConfig drives the simulated bus position feed.
type TrackingConfig struct {
	SimulatorEnabled bool
	Interval         time.Duration
	CenterLat        float64
	CenterLng        float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Storage = StorageConfig{Driver: strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER")))}
	switch cfg.Storage.Driver {
	case StorageMemory, StoragePostgres:
	default:
		return nil, errors.New("STORAGE_DRIVER must be memory or postgres")
	}

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		URL:         v.GetString("REDIS_URL"),
		Host:        v.GetString("REDIS_HOST"),
		Port:        v.GetInt("REDIS_PORT"),
		Password:    v.GetString("REDIS_PASSWORD"),
		DB:          v.GetInt("REDIS_DB"),
		DialTimeout: parseDuration(v.GetString("REDIS_DIAL_TIMEOUT"), 5*time.Second),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}
	if cfg.Env == EnvProduction && cfg.JWT.Secret == "dev_secret" {
		return nil, errors.New("JWT_SECRET must be set in production")
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Bootstrap = BootstrapConfig{
		Username: v.GetString("BOOTSTRAP_ADMIN_USERNAME"),
		Password: v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
		Email:    v.GetString("BOOTSTRAP_ADMIN_EMAIL"),
		FullName: v.GetString("BOOTSTRAP_ADMIN_FULL_NAME"),
		Phone:    v.GetString("BOOTSTRAP_ADMIN_PHONE"),
	}

	cfg.Audit = AuditConfig{
		Workers: positiveOr(v.GetInt("AUDIT_WORKERS"), 1),
		Buffer:  positiveOr(v.GetInt("AUDIT_BUFFER"), 256),
	}

	cfg.Rounds = RoundsConfig{StrictTransitions: v.GetBool("ROUND_STRICT_TRANSITIONS")}

	cfg.Dashboard = DashboardConfig{
		RecentNotifications: positiveOr(v.GetInt("DASHBOARD_RECENT_NOTIFICATIONS"), 5),
		CacheEnabled:        v.GetBool("ENABLE_DASHBOARD_CACHE"),
		CacheTTL:            parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 30*time.Second),
	}

	cfg.Tracking = TrackingConfig{
		SimulatorEnabled: v.GetBool("ENABLE_TRACKING_SIMULATOR"),
		Interval:         parseDuration(v.GetString("TRACKING_SIMULATOR_INTERVAL"), 10*time.Second),
		CenterLat:        v.GetFloat64("TRACKING_CENTER_LAT"),
		CenterLng:        v.GetFloat64("TRACKING_CENTER_LNG"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("STORAGE_DRIVER", StorageMemory)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "schoolbus")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BOOTSTRAP_ADMIN_USERNAME", "admin")
	v.SetDefault("BOOTSTRAP_ADMIN_PASSWORD", "password")
	v.SetDefault("BOOTSTRAP_ADMIN_EMAIL", "admin@school.edu")
	v.SetDefault("BOOTSTRAP_ADMIN_FULL_NAME", "School Administrator")
	v.SetDefault("BOOTSTRAP_ADMIN_PHONE", "555-123-4567")

	v.SetDefault("AUDIT_WORKERS", 1)
	v.SetDefault("AUDIT_BUFFER", 256)

	v.SetDefault("ROUND_STRICT_TRANSITIONS", true)

	v.SetDefault("DASHBOARD_RECENT_NOTIFICATIONS", 5)
	v.SetDefault("ENABLE_DASHBOARD_CACHE", false)
	v.SetDefault("DASHBOARD_CACHE_TTL", "30s")

	v.SetDefault("ENABLE_TRACKING_SIMULATOR", false)
	v.SetDefault("TRACKING_SIMULATOR_INTERVAL", "10s")
	v.SetDefault("TRACKING_CENTER_LAT", 40.7128)
	v.SetDefault("TRACKING_CENTER_LNG", -74.0060)
}

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
