package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	DBDriver    string
	DatabaseURL string
	SQLitePath  string

	SessionBackend string
	SessionTTL     time.Duration
	RedisURL       string
	CookieSecure   bool

	JWTSecret []byte
	IDPSecret []byte
	IDPLogin  string

	AdminEmails   []string
	AdminEmail    string
	AdminPassword string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	KafkaBrokers []string

	ExtensionOrigins []string
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ListenAddr: EnvDefault("LISTEN_ADDR", ":8080"),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),

		DBDriver:    EnvDefault("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  EnvDefault("SQLITE_PATH", "medflow.db"),

		SessionBackend: EnvDefault("SESSION_BACKEND", "db"),
		SessionTTL:     EnvDurationDefault("SESSION_TTL", 7*24*time.Hour),
		RedisURL:       os.Getenv("REDIS_URL"),
		CookieSecure:   EnvBoolDefault("COOKIE_SECURE", true),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),
		IDPSecret: []byte(os.Getenv("IDP_SECRET")),
		IDPLogin:  os.Getenv("IDP_LOGIN_URL"),

		AdminEmails:   CSV(os.Getenv("ADMIN_EMAILS")),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "key_bindings"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ExtensionOrigins: CSV(os.Getenv("EXTENSION_ORIGINS")),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}
