// Package config reads console and development backend settings from the
// environment through viper.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime settings of the admin console.
type Config struct {
	AppPort string
	// AllowedOrigins lists extra browser origins, such as a dashboard dev
	// server, that may send state-changing requests.
	AllowedOrigins []string
	APIURL         string
	GraphQLURL     string
	SessionDSN     string
	HTTPTimeout    time.Duration
	AnonymousAuth  string
	RabbitMQURL    string
	LogLevel       string
}

// DevBackend holds the settings of the development backend.
type DevBackend struct {
	Port          string
	DSN           string
	JWTSecret     string
	AdminEmail    string
	AdminPassword string
	TokenTTL      time.Duration
	LogLevel      string
}

// SetDefaults registers every recognized key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "127.0.0.1:3001")
	v.SetDefault("ALLOWED_ORIGINS", []string{})
	v.SetDefault("API_URL", "http://localhost:3000")
	v.SetDefault("GRAPHQL_URL", "http://localhost:3000/graphql")
	v.SetDefault("SESSION_DSN", "file:session.db")
	v.SetDefault("HTTP_TIMEOUT", 30*time.Second)
	v.SetDefault("ANONYMOUS_AUTH", "omit")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DEV_PORT", ":3000")
	v.SetDefault("DEV_DSN", "file::memory:?cache=shared")
	v.SetDefault("JWT_SECRET", "dev_jwt_secret")
	v.SetDefault("DEV_ADMIN_EMAIL", "admin@fooz.com")
	v.SetDefault("DEV_ADMIN_PASSWORD", "secret1")
	v.SetDefault("DEV_TOKEN_TTL", 24*time.Hour)
}

// New returns a viper instance with defaults applied and environment
// variables bound.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return v
}

// Load reads the console settings from v.
func Load(v *viper.Viper) Config {
	return Config{
		AppPort:        v.GetString("APP_PORT"),
		AllowedOrigins: v.GetStringSlice("ALLOWED_ORIGINS"),
		APIURL:         v.GetString("API_URL"),
		GraphQLURL:     v.GetString("GRAPHQL_URL"),
		SessionDSN:     v.GetString("SESSION_DSN"),
		HTTPTimeout:    v.GetDuration("HTTP_TIMEOUT"),
		AnonymousAuth:  v.GetString("ANONYMOUS_AUTH"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		LogLevel:       v.GetString("LOG_LEVEL"),
	}
}

// LoadDevBackend reads the development backend settings from v.
func LoadDevBackend(v *viper.Viper) DevBackend {
	return DevBackend{
		Port:          v.GetString("DEV_PORT"),
		DSN:           v.GetString("DEV_DSN"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		AdminEmail:    v.GetString("DEV_ADMIN_EMAIL"),
		AdminPassword: v.GetString("DEV_ADMIN_PASSWORD"),
		TokenTTL:      v.GetDuration("DEV_TOKEN_TTL"),
		LogLevel:      v.GetString("LOG_LEVEL"),
	}
}
