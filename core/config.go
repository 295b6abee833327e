package core

import (
	"os"
	"strconv"
	"strings"
)

// Config holds runtime settings for the login service.
type Config struct {
	Port            string   // HTTP listen port (e.g., "3000")
	AppTitle        string   // page title and login heading
	SessionKey      string   // Cookie signing key
	CookieSecure    bool     // Whether to set Secure flag on session cookie
	CookieSameSite  string   // SameSite policy: Strict/Lax/None
	SessionMaxAge   int      // session lifetime in seconds
	LogDir          string   // Directory to write application logs ("-" = stdout only)
	LogFile         string   // log file name inside LogDir
	AllowedOrigins  []string // extra allowed origins for the Origin/Referer check
	IdentitiesFile  string   // YAML file with identities (empty -> built-in single identity)
	PasswordMatcher string   // plain | bcrypt
	SessionBackend  string   // cookie | redis
	RedisURL        string   // Redis URL (redis://host:port/db), used by the redis session backend
	DatabaseURL     string   // PostgreSQL DSN; when set identities are looked up in Postgres
	SeedIdentities  bool     // copy configured identities into Postgres at startup
}

// Load populates Config from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port:            firstNonEmpty(os.Getenv("PORT"), "3000"),
		AppTitle:        firstNonEmpty(os.Getenv("APP_TITLE"), "Sample Application"),
		SessionKey:      firstNonEmpty(os.Getenv("SESSION_KEY"), "change-this-session-key"),
		CookieSecure:    boolFromEnv("COOKIE_SECURE", false),
		CookieSameSite:  firstNonEmpty(os.Getenv("COOKIE_SAMESITE"), "Strict"),
		SessionMaxAge:   intFromEnv("SESSION_MAX_AGE", defaultSessionMaxAge),
		LogDir:          firstNonEmpty(os.Getenv("LOG_DIR"), "./logs"),
		LogFile:         firstNonEmpty(os.Getenv("LOG_FILE"), "login.log"),
		AllowedOrigins:  parseCSV(os.Getenv("ALLOWED_ORIGINS")),
		IdentitiesFile:  os.Getenv("IDENTITIES_FILE"),
		PasswordMatcher: strings.ToLower(firstNonEmpty(os.Getenv("PASSWORD_MATCHER"), PlainMatcherName)),
		SessionBackend:  strings.ToLower(firstNonEmpty(os.Getenv("SESSION_BACKEND"), "cookie")),
		RedisURL:        firstNonEmpty(os.Getenv("REDIS_URL"), "redis://localhost:6379/0"),
		DatabaseURL:     firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("POSTGRES_URL")),
		SeedIdentities:  boolFromEnv("SEED_IDENTITIES", true),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// boolFromEnv reads a boolean from env var name, falling back to defaultVal when empty or invalid.
func boolFromEnv(name string, defaultVal bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// intFromEnv reads an int from env var name, falling back to defaultVal when empty or invalid.
func intFromEnv(name string, defaultVal int) int {
	if v := os.Getenv(name); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

// parseCSV splits comma-separated list and trims spaces; empty entries are skipped.
func parseCSV(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
