package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port         string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string
	JWTSecret    string
	JWTExpiresIn string // minutes
	// Seeded admin
	AdminUsername string
	AdminEmail    string
	AdminPassword string
	AdminFullName string
	// Lockdown
	PublicBaseURL string // home URL used in SEB request hashes; empty = derive from request
	StatusCache   string // memory | redis | off
	StoreTimeout  time.Duration
	// Redis (STATUS_CACHE=redis)
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
}

func Load() *Config {
	return &Config{
		Port:           getenv("PORT", "8080"),
		DBHost:         getenv("DB_HOST", "localhost"),
		DBPort:         getenv("DB_PORT", "5432"),
		DBUser:         getenv("DB_USER", "postgres"),
		DBPassword:     getenv("DB_PASSWORD", "postgres"),
		DBName:         getenv("DB_NAME", "seb_exam_db"),
		DBSSLMode:      getenv("DB_SSLMODE", "disable"),
		JWTSecret:      getenv("JWT_SECRET", "supersecret_change_me"),
		JWTExpiresIn:   getenv("JWT_EXPIRES_IN", "180"),
		AdminUsername:  getenv("ADMIN_USERNAME", "admin"),
		AdminEmail:     getenv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:  getenv("ADMIN_PASSWORD", "admin123"),
		AdminFullName:  getenv("ADMIN_FULL_NAME", "Administrator"),
		PublicBaseURL:  strings.TrimRight(getenv("PUBLIC_BASE_URL", ""), "/"),
		StatusCache:    strings.ToLower(getenv("STATUS_CACHE", "memory")),
		StoreTimeout:   time.Duration(getenvInt("STORE_TIMEOUT_MS", 3000)) * time.Millisecond,
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		RedisDB:        getenvInt("REDIS_DB", 0),
		RedisKeyPrefix: getenv("REDIS_KEY_PREFIX", "seb:exam_status"),
	}
}

// TokenTTL parses JWTExpiresIn, defaulting to three hours (one exam session).
func (c *Config) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTExpiresIn + "m")
	if err != nil || d <= 0 {
		return 180 * time.Minute
	}
	return d
}

func getenv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
