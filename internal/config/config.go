package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env                 string
	HTTPAddr            string
	LogLevel            string
	DatabaseURL         string
	JWTSecret           string
	JWTExpirySeconds    int64
	RabbitMQURL         string
	RabbitMQWorkerMode  string
	CorsAllowedOrigins  []string
	WSHeartbeatInterval time.Duration
	MetricsEnabled      bool
	AutoMigrate         bool
	Timezone            string
	RestaurantName      string

	// Seed values for the tax settings row. Requests always read the stored row.
	DefaultTaxRate        string
	DefaultServiceTaxRate string
	DefaultTaxName        string
	DefaultCurrencySymbol string

	ObjectStoreEndpoint        string
	ObjectStoreRegion          string
	ObjectStoreAccessKeyID     string
	ObjectStoreSecretAccessKey string
	ObjectStoreBucket          string
	ObjectStoreReportPrefix    string
	ObjectStoreLinkExpiry      time.Duration
}

func Load() Config {
	cfg := Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8088"),
		LogLevel:            getEnv("LOG_LEVEL", ""),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTExpirySeconds:    getEnvInt64("JWT_EXPIRY", 12*3600),
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		RabbitMQWorkerMode:  getEnv("RABBITMQ_WORKER_MODE", "daemon"),
		CorsAllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		WSHeartbeatInterval: getEnvDuration("WS_HEARTBEAT_INTERVAL", 30*time.Second),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
		AutoMigrate:         getEnvBool("DB_AUTO_MIGRATE", true),
		Timezone:            getEnv("APP_TIMEZONE", "Asia/Kuala_Lumpur"),
		RestaurantName:      getEnv("RESTAURANT_NAME", "Restaurant"),

		DefaultTaxRate:        getEnv("DEFAULT_TAX_RATE", "0.06"),
		DefaultServiceTaxRate: getEnv("DEFAULT_SERVICE_TAX_RATE", "0"),
		DefaultTaxName:        getEnv("DEFAULT_TAX_NAME", "SST"),
		DefaultCurrencySymbol: getEnv("DEFAULT_CURRENCY_SYMBOL", "RM"),

		// S3-compatible bucket for archived report exports
		ObjectStoreEndpoint:        getEnvFirst([]string{"OBJECT_STORE_ENDPOINT", "S3_ENDPOINT"}, ""),
		ObjectStoreRegion:          getEnvFirst([]string{"OBJECT_STORE_REGION", "AWS_REGION"}, "auto"),
		ObjectStoreAccessKeyID:     getEnvFirst([]string{"OBJECT_STORE_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, ""),
		ObjectStoreSecretAccessKey: getEnvFirst([]string{"OBJECT_STORE_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, ""),
		ObjectStoreBucket:          getEnv("OBJECT_STORE_BUCKET", ""),
		ObjectStoreReportPrefix:    getEnv("OBJECT_STORE_REPORT_PREFIX", "reports"),
		ObjectStoreLinkExpiry:      getEnvDuration("OBJECT_STORE_LINK_EXPIRY", 15*time.Minute),
	}

	if cfg.JWTExpirySeconds <= 0 {
		cfg.JWTExpirySeconds = 12 * 3600
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) ObjectStoreEnabled() bool {
	return c.ObjectStoreEndpoint != "" && c.ObjectStoreBucket != ""
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvFirst(keys []string, fallback string) string {
	for _, k := range keys {
		value := strings.TrimSpace(os.Getenv(k))
		if value != "" {
			return value
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
