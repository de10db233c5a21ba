package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the backend server configuration.
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int

	// Auth rate limiting
	AuthRequestsPerMin int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "5000"),
		Env:                  getEnvOrDefault("ENV", "development"),
		DatabaseURL:          mustGetEnv("DATABASE_URL"),
		RedisURL:             mustGetEnv("REDIS_URL"),
		JWTSecret:            mustGetEnv("JWT_SECRET"),
		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		AuthRequestsPerMin:   getEnvAsIntOrDefault("AUTH_REQUESTS_PER_MINUTE", 10),
		FrontendURL:          getEnvOrDefault("FRONTEND_URL", "http://localhost:5000"),
	}

	return cfg
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	// Backend; empty means chats are kept locally
	ServerURL string

	// Local storage
	DataDir  string
	RedisURL string

	// Generation
	GenerationEndpoint string
	EnvFile            string
}

func LoadClient() *ClientConfig {
	godotenv.Load()

	return &ClientConfig{
		ServerURL:          getEnvOrDefault("INKWISE_SERVER_URL", ""),
		DataDir:            getEnvOrDefault("INKWISE_DATA_DIR", defaultDataDir()),
		RedisURL:           getEnvOrDefault("INKWISE_REDIS_URL", ""),
		GenerationEndpoint: getEnvOrDefault("GEMINI_ENDPOINT", ""),
		EnvFile:            getEnvOrDefault("INKWISE_ENV_FILE", ".env"),
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + string(os.PathSeparator) + "inkwise"
	}
	return ".inkwise"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
