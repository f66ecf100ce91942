package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	FirebaseCredentialsPath string
	FirebaseDatabaseURL     string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	RedisAddr               string
	RedisPassword           string
	JWTSecret               string
	FeedPollInterval        time.Duration
	ConsumedSetLimit        int
	ConsumedSetTTL          time.Duration
}

// Load reads configuration from the environment, loading a .env file first
// when one is present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		FirebaseDatabaseURL:     getEnv("FIREBASE_DATABASE_URL", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "recordwithme"),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		FeedPollInterval:        getEnvDuration("FEED_POLL_INTERVAL", 2*time.Second),
		ConsumedSetLimit:        getEnvInt("CONSUMED_SET_LIMIT", 500),
		ConsumedSetTTL:          getEnvDuration("CONSUMED_SET_TTL", 7*24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		logrus.WithField("key", key).Warnf("Invalid integer %q, using default %d", value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logrus.WithField("key", key).Warnf("Invalid duration %q, using default %s", value, defaultValue)
		return defaultValue
	}
	return d
}
