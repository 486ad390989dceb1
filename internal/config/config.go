package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/crisiscare/crisiscare-backend/internal/store"
)

type Config struct {
	Port        string
	Environment string // ENV: production, development, etc.

	DataDir         string
	EntriesJSONFile string
	EntriesTextFile string
	StaticDir       string // empty disables static file serving

	AllowedOrigins []string // CORS

	// Optional backends; an empty URI disables the feature.
	RedisURI    string
	PostgresURI string
	MongoURI    string

	SubmitRatePerMin float64
	SubmitRateBurst  int
	TrustProxy       bool
}

func Load() *Config {
	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	return &Config{
		Port:             getEnv("PORT", "3000"),
		Environment:      strings.ToLower(strings.TrimSpace(getEnv("ENV", "development"))),
		DataDir:          getEnv("DATA_DIR", "."),
		EntriesJSONFile:  getEnv("ENTRIES_JSON_FILE", store.DefaultJSONFile),
		EntriesTextFile:  getEnv("ENTRIES_TEXT_FILE", store.DefaultTextFile),
		StaticDir:        getEnv("STATIC_DIR", ""),
		AllowedOrigins:   allowedOrigins,
		RedisURI:         getEnv("REDIS_URI", ""),
		PostgresURI:      getEnv("POSTGRES_URI", ""),
		MongoURI:         getEnv("MONGODB_URI", getEnv("MONGO_URI", "")),
		SubmitRatePerMin: getEnvFloat("SUBMIT_RATE_PER_MIN", 10),
		SubmitRateBurst:  getEnvInt("SUBMIT_RATE_BURST", 5),
		TrustProxy:       getEnvBool("TRUST_PROXY", false),
	}
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil && v > 0 {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}
