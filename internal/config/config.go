package config

import "os"

type Config struct {
	Auth     AuthConfig
	Postgres PostgresConfig
	Server   ServerConfig
}

type AuthConfig struct {
	SecretKey      string
	AccessTTL      string
	RefreshTTLDays string
	CookieSecure   string
	CookieSameSite string
	CookiePath     string
	CookieDomain   string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type ServerConfig struct {
	Port           string
	AllowedOrigins string
	RequestTimeout string
}

func Load() Config {
	return Config{
		Auth: AuthConfig{
			SecretKey:      os.Getenv("SECRET_KEY"),
			AccessTTL:      getenv("ACCESS_TOKEN_TTL", "15m"),
			RefreshTTLDays: getenv("REFRESH_TOKEN_TTL_DAYS", "7"),
			CookieSecure:   os.Getenv("AUTH_COOKIE_SECURE"),
			CookieSameSite: os.Getenv("AUTH_COOKIE_SAMESITE"),
			CookiePath:     os.Getenv("AUTH_COOKIE_PATH"),
			CookieDomain:   os.Getenv("AUTH_COOKIE_DOMAIN"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port:           getenv("PORT", "8080"),
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
			RequestTimeout: getenv("REQUEST_TIMEOUT", "30s"),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
