package config

import (
	"os"
	"strings"
	"time"
)

// Origins always allowed regardless of CORS_ORIGIN.
var defaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"https://kids-paradise-liart.vercel.app",
	"https://kidlit-library-quest.vercel.app",
}

type Config struct {
	HTTPAddr string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	GeminiTimeout time.Duration

	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseJWTSecret  string
	IdentityTimeout    time.Duration

	AllowedOrigins []string

	Production bool
	StaticDir  string
}

func Load() Config {
	return Config{
		HTTPAddr: getenv("HTTP_ADDR", ":4000"),

		GeminiAPIKey:  getenv("GEMINI_API_KEY", ""),
		GeminiModel:   getenv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL: getenv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiTimeout: getenvDuration("GEMINI_TIMEOUT", 30*time.Second),

		SupabaseURL:        strings.TrimRight(getenv("SUPABASE_URL", ""), "/"),
		SupabaseServiceKey: getenv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:  getenv("SUPABASE_JWT_SECRET", ""),
		IdentityTimeout:    getenvDuration("IDENTITY_TIMEOUT", 10*time.Second),

		AllowedOrigins: append(append([]string{}, defaultAllowedOrigins...), getenvList("CORS_ORIGIN")...),

		Production: getenv("PRODUCTION", "") == "1" || getenv("NODE_ENV", "") == "production",
		StaticDir:  getenv("STATIC_DIR", "client/dist"),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
