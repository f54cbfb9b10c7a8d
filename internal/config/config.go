package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration errors and halts execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds to an
// environment variable. Strings cover identifiers and secrets, ints cover
// durations, costs and buffer sizes.
type Config struct {
	Env             string // application environment (e.g. "dev", "prod")
	Port            string // HTTP port to listen on
	DBUser          string // database username
	DBPass          string // database password (optional)
	DBHost          string // database host address
	DBPort          string // database port number
	DBName          string // database name
	JWTSecret       string // secret used to sign planner access tokens
	AccessTTLMin    int    // access token time-to-live in minutes
	BcryptCost      int    // bcrypt cost for password hashing
	PortalBaseURL   string // public base URL encoded into guest QR codes
	BroadcastRetain int    // seating deltas retained per event for catch-up
	BroadcastQueue  int    // per-subscriber delivery buffer for the live feed
	AMQPURL         string // RabbitMQ URL for the check-in audit stream (optional)
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message. Buffer sizes fall back to
// package defaults when left unset so a minimal .env still boots a working
// server.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"), // empty allowed
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		JWTSecret:       must("JWT_SECRET"),
		AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),
		BcryptCost:      mustInt("BCRYPT_COST"),
		PortalBaseURL:   must("PORTAL_BASE_URL"),
		BroadcastRetain: envInt("BROADCAST_RETAIN", 0),
		BroadcastQueue:  envInt("BROADCAST_QUEUE", 0),
		AMQPURL:         os.Getenv("AMQP_URL"), // audit stream disabled when empty
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
