package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	DisplayPort    string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers    []string
	KafkaGroupID    string
	VisitEventTopic string
	AnnounceTopic   string

	// Queue engine
	PollInterval      time.Duration
	QueueRulesPath    string
	QueueCacheTTL     time.Duration
	AnnouncementTTL   time.Duration
	ConsultationPrice float64

	// Auth
	JWTSecret        string
	JWTIssuer        string
	JWTAudience      string
	JWTTTL           time.Duration
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		DisplayPort:    getEnv("DISPLAY_PORT", "8081"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1*1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "medloop"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "medloop123"),
		PostgresDB:       getEnv("POSTGRES_DB", "medloop"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:    getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:    getEnv("KAFKA_GROUP_ID", "medloop"),
		VisitEventTopic: getEnv("VISIT_EVENT_TOPIC", "medloop.visit-events"),
		AnnounceTopic:   getEnv("ANNOUNCE_TOPIC", "medloop.announcements"),

		PollInterval:      getDuration("QUEUE_POLL_INTERVAL", 3*time.Second),
		QueueRulesPath:    getEnv("QUEUE_RULES_PATH", ""),
		QueueCacheTTL:     getDuration("QUEUE_CACHE_TTL", 10*time.Second),
		AnnouncementTTL:   getDuration("ANNOUNCEMENT_TTL", 30*time.Second),
		ConsultationPrice: getFloatEnv("CONSULTATION_PRICE", 50),

		JWTSecret:        getEnv("JWT_SECRET", "medloop-dev-secret-key"),
		JWTIssuer:        getEnv("JWT_ISSUER", "medloop"),
		JWTAudience:      getEnv("JWT_AUDIENCE", "medloop-staff"),
		JWTTTL:           getDuration("JWT_TTL", 8*time.Hour),
		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
