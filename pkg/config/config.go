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

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Upstream  UpstreamConfig
	Academic  AcademicConfig
	Catalog   CatalogConfig
	Bootstrap BootstrapConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UpstreamConfig points at the three record providers consumed by the importer.
type UpstreamConfig struct {
	StudentsURL string
	CoursesURL  string
	LibraryURL  string
	Timeout     time.Duration
}

// AcademicConfig carries the status tokens and default term used by the engines.
// AvailableStatuses lists the reservable item statuses; the first is written back on cancel.
type AcademicConfig struct {
	DefaultPeriod      string
	LockedStatuses     []string
	AvailableStatuses  []string
	ItemStatusReserved string
}

// CatalogConfig governs caching of catalog listings.
type CatalogConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// BootstrapConfig controls the one-shot import at process start.
type BootstrapConfig struct {
	InitOnStart bool
	Force       bool
	ApplySchema bool
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

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Upstream = UpstreamConfig{
		StudentsURL: v.GetString("UPSTREAM_STUDENTS_URL"),
		CoursesURL:  v.GetString("UPSTREAM_COURSES_URL"),
		LibraryURL:  v.GetString("UPSTREAM_LIBRARY_URL"),
		Timeout:     parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 5*time.Second),
	}

	cfg.Academic = AcademicConfig{
		DefaultPeriod:      v.GetString("DEFAULT_PERIOD"),
		LockedStatuses:     splitAndTrim(v.GetString("LOCKED_STATUS")),
		AvailableStatuses:  splitAndTrim(v.GetString("ITEM_STATUS_AVAILABLE")),
		ItemStatusReserved: v.GetString("ITEM_STATUS_RESERVED"),
	}

	cfg.Catalog = CatalogConfig{
		CacheEnabled: v.GetBool("ENABLE_CATALOG_CACHE"),
		CacheTTL:     parseDuration(v.GetString("CATALOG_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Bootstrap = BootstrapConfig{
		InitOnStart: v.GetBool("INIT_ON_START"),
		Force:       v.GetBool("INIT_FORCE"),
		ApplySchema: v.GetBool("DB_APPLY_SCHEMA"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academic_records")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_APPLY_SCHEMA", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "academic-records")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPSTREAM_STUDENTS_URL", "https://rmi6vdpsq8.execute-api.us-east-2.amazonaws.com/msAluno")
	v.SetDefault("UPSTREAM_COURSES_URL", "https://sswfuybfs8.execute-api.us-east-2.amazonaws.com/disciplinaServico/msDisciplina")
	v.SetDefault("UPSTREAM_LIBRARY_URL", "https://qiiw8bgxka.execute-api.us-east-2.amazonaws.com/acervo/biblioteca")
	v.SetDefault("UPSTREAM_TIMEOUT", "5s")

	v.SetDefault("DEFAULT_PERIOD", "2024.2")
	v.SetDefault("LOCKED_STATUS", "locked,trancado")
	v.SetDefault("ITEM_STATUS_AVAILABLE", "Available,Disponível")
	v.SetDefault("ITEM_STATUS_RESERVED", "Reserved")

	v.SetDefault("ENABLE_CATALOG_CACHE", false)
	v.SetDefault("CATALOG_CACHE_TTL", "5m")

	v.SetDefault("INIT_ON_START", true)
	v.SetDefault("INIT_FORCE", false)
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
