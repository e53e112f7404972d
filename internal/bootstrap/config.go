package bootstrap

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	DatabaseDSN string
	SQLitePath  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	EngineURL    string
	EngineAPIKey string

	ModelDir string

	MQTTBroker   string
	MQTTClientID string

	AuthTokens []string

	Acceleration string

	RateLimitPerSecond float64
	RateLimitBurst     int
}

func LoadConfig() *Config {
	godotenv.Load()

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "pose.db"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		EngineURL:    getEnv("ENGINE_URL", "http://localhost:9090"),
		EngineAPIKey: getEnv("ENGINE_API_KEY", ""),

		ModelDir: getEnv("MODEL_DIR", "./models"),

		MQTTBroker:   getEnv("MQTT_BROKER", ""),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "pose-backend"),

		AuthTokens: parseList(getEnv("AUTH_TOKENS", "")),

		Acceleration: getEnv("ACCELERATION", ""),

		RateLimitPerSecond: float64(getEnvInt("RATE_LIMIT_PER_SECOND", 10)),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseList(envValue string) []string {
	var out []string
	for _, v := range strings.Split(envValue, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
