package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Session   SessionConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Environment  string
}

func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

func (s ServerConfig) IsProduction() bool {
	return s.Environment == "production"
}

type AuthConfig struct {
	// SharedPassword is hashed at start-up when SharedPasswordHash is empty.
	SharedPassword     string
	SharedPasswordHash string
	SessionExpiration  time.Duration
	MaxLoginAttempts   int
	LoginWindow        time.Duration
}

type StorageConfig struct {
	Type        string // local, s3, postgres or memory
	DataDir     string
	DocumentKey string
	S3Bucket    string
	S3Region    string
	DatabaseURL string
}

type SessionConfig struct {
	Storage string // memory or postgres
	Table   string
}

type RedisConfig struct {
	URL string
}

type TelemetryConfig struct {
	Enabled        bool
	ExporterURL    string
	ServiceName    string
	ServiceVersion string
	Environment    string
	SamplingRatio  float64
}

func NewConfig() *Config {
	environment := getEnv("SERVER_ENVIRONMENT", "development")

	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "localhost"),
			Port:         getEnv("SERVER_PORT", "3000"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			Environment:  environment,
		},
		Auth: AuthConfig{
			SharedPassword:     getEnv("AUTH_SHARED_PASSWORD", ""),
			SharedPasswordHash: getEnv("AUTH_SHARED_PASSWORD_HASH", ""),
			SessionExpiration:  getEnvDuration("AUTH_SESSION_EXPIRATION", 7*24*time.Hour),
			MaxLoginAttempts:   getEnvInt("AUTH_MAX_LOGIN_ATTEMPTS", 5),
			LoginWindow:        getEnvDuration("AUTH_LOGIN_WINDOW", 15*time.Minute),
		},
		Storage: StorageConfig{
			Type:        getEnv("STORAGE_TYPE", "local"),
			DataDir:     getEnv("DATA_DIR", "./data"),
			DocumentKey: getEnv("STORAGE_DOCUMENT_KEY", "family-data.json"),
			S3Bucket:    getEnv("STORAGE_S3_BUCKET", ""),
			S3Region:    getEnv("STORAGE_S3_REGION", "eu-west-1"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		Session: SessionConfig{
			Storage: getEnv("SESSION_STORAGE", "memory"),
			Table:   getEnv("SESSION_TABLE", "fiber_sessions"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:        getEnvBool("OTEL_ENABLED", false),
			ExporterURL:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "familytree"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    environment,
			SamplingRatio:  getEnvFloat("OTEL_SAMPLING_RATIO", 1.0),
		},
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}
