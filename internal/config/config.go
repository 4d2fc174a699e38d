package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Storage Configuration ("mongo" or "memory")
	StorageBackend string

	// MongoDB Configuration
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// HTTP Server Configuration
	HTTPPort         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	// Generation Provider Configuration
	GenerationURL           string
	GenerationAPIKey        string
	GenerationTimeout       time.Duration
	GenerationQuestionsPath string
	GenerationRetryDelay    time.Duration

	// Content Configuration
	ReadingQuestionsPerPassage int

	// Job Store Configuration
	JobRetention time.Duration
	GCSchedule   string

	// Daily Caps Configuration (per-section overrides)
	FreeCaps    map[string]int
	PremiumCaps map[string]int

	// Logging Configuration
	LogLevel  string
	LogFormat string

	// CORS Configuration
	CORSAllowedOrigins   string
	CORSAllowedMethods   string
	CORSAllowedHeaders   string
	CORSAllowCredentials bool
	CORSMaxAge           int
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// Storage
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", "mongo")),

		// MongoDB
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/examforge?authSource=admin"),
		MongoDatabase: getEnv("MONGO_DATABASE", "examforge"),
		MongoTimeout:  getDurationEnv("MONGO_TIMEOUT_SEC", 10) * time.Second,

		// HTTP Server
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		HTTPReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT_SEC", 30) * time.Second,
		HTTPWriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT_SEC", 30) * time.Second,

		// Generation provider
		GenerationURL:           getEnv("GENERATION_URL", "http://localhost:9000/v1/generate"),
		GenerationAPIKey:        getEnv("GENERATION_API_KEY", ""),
		GenerationTimeout:       getDurationEnv("GENERATION_TIMEOUT_SEC", 60) * time.Second,
		GenerationQuestionsPath: getEnv("GENERATION_QUESTIONS_PATH", "$.questions"),
		GenerationRetryDelay:    getDurationEnv("GENERATION_RETRY_DELAY_SEC", 2) * time.Second,

		// Content
		ReadingQuestionsPerPassage: getIntEnv("READING_QUESTIONS_PER_PASSAGE", 4),

		// Job store
		JobRetention: getDurationEnv("JOB_RETENTION_MIN", 60) * time.Minute,
		GCSchedule:   getEnv("JOB_GC_SCHEDULE", "@every 10m"),

		// Daily caps
		FreeCaps:    getCapsEnv("FREE_CAP"),
		PremiumCaps: getCapsEnv("PREMIUM_CAP"),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// CORS
		CORSAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),
		CORSAllowedMethods:   getEnv("CORS_ALLOWED_METHODS", "GET, POST, OPTIONS"),
		CORSAllowedHeaders:   getEnv("CORS_ALLOWED_HEADERS", "*"),
		CORSAllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAge:           getIntEnv("CORS_MAX_AGE", 3600),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return time.Duration(intVal)
		}
		log.Printf("Warning: Invalid duration value for %s, using default %d", key, defaultValue)
	}
	return time.Duration(defaultValue)
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
	}
	return defaultValue
}

// getCapsEnv collects per-section cap overrides of the form
// <prefix>_<SECTION>, e.g. FREE_CAP_QUANTITATIVE=20. Sections without an
// override keep the built-in defaults.
func getCapsEnv(prefix string) map[string]int {
	caps := make(map[string]int)
	for _, section := range []string{"quantitative", "analogy", "synonym", "reading", "writing"} {
		key := prefix + "_" + strings.ToUpper(section)
		if value := os.Getenv(key); value != "" {
			if intVal, err := strconv.Atoi(value); err == nil && intVal >= 0 {
				caps[section] = intVal
			} else {
				log.Printf("Warning: Invalid cap value for %s, keeping default", key)
			}
		}
	}
	return caps
}
