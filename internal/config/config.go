package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable; required variables are enforced by must()
// and missing values cause the program to exit with a fatal log message.
type Config struct {
	Env           string // application environment (e.g. "dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	JWTSecret     string // secret used to verify access tokens
	AMQPURL       string // RabbitMQ URL for platform notifications (optional)
	PlatformURL   string // callback base URL of the online-order platform (optional)
	HeartbeatSecs int    // seconds of terminal silence before it is dropped
}

// Load reads configuration from the environment.  AMQP and platform
// callback settings are optional: when empty, outbound platform
// notifications are logged instead of delivered.
func Load() Config {
	return Config{
		Env:           must("APP_ENV"),
		Port:          must("APP_PORT"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		AMQPURL:       os.Getenv("AMQP_URL"),
		PlatformURL:   os.Getenv("PLATFORM_CALLBACK_URL"),
		HeartbeatSecs: envInt("TERMINAL_HEARTBEAT_SECS", 60),
	}
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
