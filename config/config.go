package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided
// via the environment.
type Config struct {
	AppPort string
	GinMode string

	// Token signing
	JWTSecret string

	// Registration policy: only addresses with this suffix may register.
	EmailDomain string
	// SentinelEmail identifies the pre-seeded account that inherits content
	// from deleted users. It is created at boot and is never deletable.
	SentinelEmail string
	// SiteBaseURL prefixes the verification and magic-login links placed in
	// outgoing mail.
	SiteBaseURL string

	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      bool

	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	LogLevel      string
	LogPath       string
	GinPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	RateLimitPerMinute int
	AllowedOrigins     []string

	// SeedOnBoot fills empty reference tables with the bootstrap catalog.
	SeedOnBoot bool
}

// Load reads configuration from environment variables, filling defaults for
// anything optional. It should be called once during boot.
func Load() Config {
	cfg := Config{
		AppPort:            getEnv("APP_PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "release"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		EmailDomain:        getEnv("EMAIL_DOMAIN", "@scarletmail.rutgers.edu"),
		SentinelEmail:      getEnv("SENTINEL_EMAIL", "deleted@scarletstudies.org"),
		SiteBaseURL:        getEnv("SITE_BASE_URL", "https://www.scarletstudies.org"),
		DatabaseURI:        os.Getenv("DATABASE_URI"),
		DBHost:             getEnv("DB_HOST", "127.0.0.1"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBUser:             getEnv("DB_USER", "root"),
		DBPassword:         os.Getenv("DB_PASSWORD"),
		DBName:             getEnv("DB_NAME", "scarletstudies"),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           getEnvInt("SMTP_PORT", 587),
		SMTPUsername:       os.Getenv("SMTP_USERNAME"),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:           os.Getenv("SMTP_FROM"),
		SMTPFromName:       getEnv("SMTP_FROM_NAME", "Scarlet Studies"),
		SMTPTLS:            getEnv("SMTP_TLS", "true") == "true",
		RedisHost:          getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:          getEnvInt("REDIS_PORT", 6379),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogPath:            getEnv("LOG_PATH", "logs/api.log"),
		GinPath:            getEnv("GIN_PATH", "logs/gin.log"),
		LogMaxSizeMB:       getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups:      getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays:      getEnvInt("LOG_MAX_AGE_DAYS", 7),
		LogCompress:        getEnv("LOG_COMPRESS", "") == "true",
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		AllowedOrigins:     readListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		SeedOnBoot:         getEnv("SEED_REFERENCE_DATA", "") == "true",
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s for %s: %v", val, key, err)
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaults
	}
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
