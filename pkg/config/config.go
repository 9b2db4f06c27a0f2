package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	WeatherCloud WeatherCloudConfig
	SMTP         SMTPConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers      []string
	TopicArchive string
	GroupID      string
}

// WeatherCloudConfig holds the account identity and the delivery policy
// for the upload worker.
type WeatherCloudConfig struct {
	ID           string
	Key          string
	ServerURL    string
	SkipUpload   bool
	PostInterval time.Duration
	MaxBacklog   int
	Stale        time.Duration
	Timeout      time.Duration
	MaxTries     int
	RetryWait    time.Duration
	LogSuccess   bool
	LogFailure   bool
	AlertAfter   int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "weather_user"),
			Password: getEnv("DB_PASSWORD", "weather_pass"),
			DBName:   getEnv("DB_NAME", "weather_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:      strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicArchive: getEnv("KAFKA_TOPIC_ARCHIVE", "weather.archive.records"),
			GroupID:      getEnv("KAFKA_GROUP_ID", "wcloud-bridge"),
		},
		WeatherCloud: WeatherCloudConfig{
			ID:           getEnv("WCLOUD_ID", ""),
			Key:          getEnv("WCLOUD_KEY", ""),
			ServerURL:    getEnv("WCLOUD_SERVER_URL", ""),
			SkipUpload:   getEnvAsBool("WCLOUD_SKIP_UPLOAD", false),
			PostInterval: getEnvAsDuration("WCLOUD_POST_INTERVAL", 600*time.Second),
			MaxBacklog:   getEnvAsInt("WCLOUD_MAX_BACKLOG", 0),
			Stale:        getEnvAsDuration("WCLOUD_STALE", 0),
			Timeout:      getEnvAsDuration("WCLOUD_TIMEOUT", 60*time.Second),
			MaxTries:     getEnvAsInt("WCLOUD_MAX_TRIES", 3),
			RetryWait:    getEnvAsDuration("WCLOUD_RETRY_WAIT", 5*time.Second),
			LogSuccess:   getEnvAsBool("WCLOUD_LOG_SUCCESS", true),
			LogFailure:   getEnvAsBool("WCLOUD_LOG_FAILURE", true),
			AlertAfter:   getEnvAsInt("WCLOUD_ALERT_AFTER", 0),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "wcloud-bridge@example.com"),
			To:       getEnv("SMTP_TO", "admin@example.com"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
