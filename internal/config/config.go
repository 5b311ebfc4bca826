// Package config loads application configuration from environment
// variables.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable; required variables are enforced by must()
// and abort startup when missing.
type Config struct {
	Env                string        // application environment (e.g. "dev", "prod")
	Port               string        // HTTP port to listen on
	DBUser             string        // database username
	DBPass             string        // database password (optional)
	DBHost             string        // database host address
	DBPort             string        // database port number
	DBName             string        // database name
	AMQPURL            string        // RabbitMQ connection URL
	JWTSecret          string        // secret used to sign owner JWTs
	OwnerTokenTTLMin   int           // owner token time-to-live in minutes
	BcryptCost         int           // bcrypt cost for access-code hashing
	SagaPollInterval   time.Duration // how often the expiration poller sweeps
	ConferenceCacheTTL time.Duration // TTL of the cached conference reader
}

// Load reads configuration values from environment variables and returns
// a Config.
func Load() Config {
	return Config{
		Env:                must("APP_ENV"),                            // environment (dev/test/prod)
		Port:               must("APP_PORT"),                           // port to bind the HTTP server
		DBUser:             must("DB_USER"),                            // database user
		DBPass:             os.Getenv("DB_PASS"),                       // database password (empty allowed)
		DBHost:             must("DB_HOST"),                            // database host
		DBPort:             must("DB_PORT"),                            // database port
		DBName:             must("DB_NAME"),                            // database name
		AMQPURL:            must("RABBITMQ_URL"),                       // broker URL for commands and events
		JWTSecret:          must("JWT_SECRET"),                         // secret used for signing owner JWTs
		OwnerTokenTTLMin:   mustInt("OWNER_TOKEN_TTL_MIN"),             // TTL for owner tokens in minutes
		BcryptCost:         mustInt("BCRYPT_COST"),                     // bcrypt cost factor
		SagaPollInterval:   envDur("SAGA_POLL_INTERVAL", 30*time.Second), // expiration sweep interval
		ConferenceCacheTTL: envDur("CONFERENCE_CACHE_TTL", time.Minute),  // cached conference reader TTL
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an
// integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
