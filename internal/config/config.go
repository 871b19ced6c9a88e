package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"locate-mcp/internal/geo"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Geocoder geo.Config

	DataPath string
	LogDir   string

	// RedisURL selects the session backend; empty means in-memory.
	RedisURL   string
	SessionTTL time.Duration

	// MemberDirectory is an optional YAML file of known utility members.
	MemberDirectory string

	SweepSchedule       string
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (highest priority for MCP servers)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve Data Paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	geocoderTimeout := getEnvInt("GEOCODER_TIMEOUT_SECONDS", 15)
	geocoderDelay := getEnvInt("GEOCODER_REQUEST_DELAY_SECONDS", 1)
	sessionTTL := getEnvInt("SESSION_TTL_MINUTES", 30)

	cfg := &AppConfig{
		Geocoder: geo.Config{
			BaseURL:      getEnv("GEOCODER_URL", ""),
			Timeout:      time.Duration(geocoderTimeout) * time.Second,
			RequestDelay: time.Duration(geocoderDelay) * time.Second,
		},
		DataPath:            dataPath,
		LogDir:              logDir,
		RedisURL:            getEnv("REDIS_URL", ""),
		SessionTTL:          time.Duration(sessionTTL) * time.Minute,
		MemberDirectory:     getEnv("MEMBER_DIRECTORY", ""),
		SweepSchedule:       getEnv("SWEEP_SCHEDULE", "@every 1h"),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}
