package config // package config loads application configuration from .env and environment variables

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds all runtime configuration values.  Required values are
// enforced by must(); everything else has a development-friendly default.
type Config struct {
	ServiceName string // namespace attached to every log line
	Env         string // application environment (dev, test, prod)
	LogLevel    string // zap level name
	Port        string // HTTP port to listen on

	DBUser            string // database username
	DBPass            string // database password (optional)
	DBHost            string // database host address
	DBPort            string // database port number
	DBName            string // database name
	MigrationsEnabled bool   // run embedded migrations at startup

	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	PasswordResetTTL time.Duration // lifetime of a password reset token
	ExposeResetToken bool          // return reset tokens in the response; local development only

	RabbitURL string // AMQP URL of the change-feed broker; empty disables it

	NominatimURL string        // base URL of the reverse geocoding service
	GeocodeTTL   time.Duration // how long reverse geocoding results stay cached

	DefaultRadiusKm float64   // radius used when a search does not specify one
	MaxRadiusKm     float64   // upper bound for radius expansion
	RadiusSteps     []float64 // expansion ladder tried when a search comes back empty

	ChatReplyDelay time.Duration // delay before the simulated mechanic replies
}

// Load reads .env (if present) and then the process environment.  Missing
// required variables stop the process with a fatal log message.
func Load() Config {
	_ = godotenv.Load(".env")

	return Config{
		ServiceName: cast.ToString(getOrReturnDefault("SERVICE_NAME", "roadready")),
		Env:         cast.ToString(getOrReturnDefault("APP_ENV", "dev")),
		LogLevel:    cast.ToString(getOrReturnDefault("LOG_LEVEL", "info")),
		Port:        cast.ToString(getOrReturnDefault("APP_PORT", "8080")),

		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"),
		DBHost:            must("DB_HOST"),
		DBPort:            cast.ToString(getOrReturnDefault("DB_PORT", "3306")),
		DBName:            must("DB_NAME"),
		MigrationsEnabled: cast.ToBool(getOrReturnDefault("MIGRATIONS_ENABLED", true)),

		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   cast.ToInt(getOrReturnDefault("ACCESS_TOKEN_TTL_MIN", 15)),
		RefreshTTLDays: cast.ToInt(getOrReturnDefault("REFRESH_TOKEN_TTL_DAYS", 7)),
		BcryptCost:     cast.ToInt(getOrReturnDefault("BCRYPT_COST", 10)),

		PasswordResetTTL: cast.ToDuration(getOrReturnDefault("PASSWORD_RESET_TTL", "1h")),
		ExposeResetToken: cast.ToBool(getOrReturnDefault("PASSWORD_RESET_EXPOSE_TOKEN", false)),

		RabbitURL: rabbitURL(),

		NominatimURL: cast.ToString(getOrReturnDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org")),
		GeocodeTTL:   cast.ToDuration(getOrReturnDefault("GEOCODE_CACHE_TTL", "24h")),

		DefaultRadiusKm: cast.ToFloat64(getOrReturnDefault("SEARCH_DEFAULT_RADIUS_KM", 20)),
		MaxRadiusKm:     cast.ToFloat64(getOrReturnDefault("SEARCH_MAX_RADIUS_KM", 100)),
		RadiusSteps:     parseSteps(getenv("SEARCH_RADIUS_STEPS", "10,20,50,100")),

		ChatReplyDelay: cast.ToDuration(getOrReturnDefault("CHAT_REPLY_DELAY", "2s")),
	}
}

// rabbitURL accepts either RABBITMQ_URL or AMQP_URL.  An empty result means
// the change feed stays in-process.
func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
