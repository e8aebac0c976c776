package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port              string
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string
	MongoDBURI        string
	MongoDBPassword   string
	MongoDBDatabase   string
	NATSURL           string
	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderCacheSize int
	FrontendURL       string
	CorsOrigins       []string
	Timezone          string
	FeedPageSize      int
	ToastDuration     time.Duration
	Environment       string
	LogLevel          string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8080"),
		SupabaseURL:       os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:   os.Getenv("SUPABASE_URL_ANON_KEY"),
		SupabaseJWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),
		MongoDBURI:        os.Getenv("MONGODB_URI"),
		MongoDBPassword:   os.Getenv("MONGODB_PASSWORD"),
		MongoDBDatabase:   getEnvWithDefault("MONGODB_DATABASE", "rolecerto"),
		NATSURL:           os.Getenv("NATS_URL"),
		GeocoderURL:       getEnvWithDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getEnvWithDefault("GEOCODER_USER_AGENT", "rolecerto-api/1.0"),
		FrontendURL:       getEnvWithDefault("FRONTEND_URL", "http://localhost:4200"),
		Timezone:          getEnvWithDefault("TIMEZONE", "America/Sao_Paulo"),
		Environment:       getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
	}

	cfg.CorsOrigins = splitList(getEnvWithDefault("CORS_ORIGINS", cfg.FrontendURL))

	var err error
	if cfg.GeocoderCacheSize, err = getIntWithDefault("GEOCODER_CACHE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.FeedPageSize, err = getIntWithDefault("FEED_PAGE_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.ToastDuration, err = time.ParseDuration(getEnvWithDefault("TOAST_DURATION", "5s")); err != nil {
		return nil, fmt.Errorf("TOAST_DURATION: %w", err)
	}

	// Validate required fields
	if cfg.SupabaseURL == "" {
		return nil, fmt.Errorf("SUPABASE_URL is required")
	}
	if cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.FeedPageSize <= 0 {
		return nil, fmt.Errorf("FEED_PAGE_SIZE must be positive")
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
