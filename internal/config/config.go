package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. The database is described by discrete
// host/port/name/user/password fields; the catalog and identity
// providers are configured by a key/URL pair and a credentials file
// path respectively. The JWT fields are loaded for deployment parity
// but feed no verification path: token verification is owned entirely
// by the identity provider.
type Config struct {
	Env                  string // application environment (e.g. "dev", "prod")
	Port                 string // HTTP port to listen on
	DBUser               string // database username
	DBPass               string // database password (optional)
	DBHost               string // database host address
	DBPort               string // database port number
	DBName               string // database name
	FirebaseCredentials  string // path to the identity-provider service account file
	GoogleBooksAPIKey    string // catalog provider API key (optional)
	GoogleBooksAPIURL    string // catalog provider base URL
	JWTSecret            string // token-signing secret (unused by any verification path)
	JWTAlgorithm         string // token-signing algorithm (unused by any verification path)
	AccessTokenExpireMin int    // token expiry in minutes (unused by any verification path)
}

// Load reads configuration values from environment variables and returns
// a Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message. Provider settings
// fall back to sensible defaults so that a bare deployment can still
// start in a degraded mode.
func Load() Config {
	return Config{
		Env:                  getenv("APP_ENV", "dev"),
		Port:                 must("APP_PORT"),
		DBUser:               must("DB_USER"),
		DBPass:               os.Getenv("DB_PASS"), // empty allowed
		DBHost:               must("DB_HOST"),
		DBPort:               must("DB_PORT"),
		DBName:               must("DB_NAME"),
		FirebaseCredentials:  getenv("FIREBASE_CREDENTIALS_PATH", "firebase-credentials.json"),
		GoogleBooksAPIKey:    os.Getenv("GOOGLE_BOOKS_API_KEY"),
		GoogleBooksAPIURL:    getenv("GOOGLE_BOOKS_API_URL", "https://www.googleapis.com/books/v1"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTAlgorithm:         getenv("JWT_ALGORITHM", "HS256"),
		AccessTokenExpireMin: atoi(getenv("ACCESS_TOKEN_EXPIRE_MIN", "30")),
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

// getenv returns the value of an environment variable or a default when
// the variable is unset or empty.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}
