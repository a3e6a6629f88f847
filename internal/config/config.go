// Package config loads application configuration from environment
// variables. Process-wide settings such as the signing secret and the
// static credential table are materialized here once at startup and
// handed to the components that need them; nothing reads the
// environment after Load returns.
package config

import (
	"log"
	"strings"
)

// Watch ledger configurations. PerUser keeps one watch row per
// (user, show) pair; Global keeps a single shared flag on the show row.
const (
	WatchModePerUser = "per_user"
	WatchModeGlobal  = "global"
)

// DefaultAuthUsers is the demo credential table used when AUTH_USERS is
// not set. Keeping credentials in configuration (rather than a user
// table) is a deliberate property of this service: the set of known
// users is exactly the set of users who can log in.
const DefaultAuthUsers = "ray:password123,dana:secret"

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable.
type Config struct {
	Env          string            // application environment (e.g. "dev", "prod")
	Port         string            // HTTP port to listen on
	DBDriver     string            // "sqlite3" (default) or "mysql"
	DBPath       string            // sqlite database file path
	DBUser       string            // mysql username
	DBPass       string            // mysql password (optional)
	DBHost       string            // mysql host address
	DBPort       string            // mysql port number
	DBName       string            // mysql database name
	JWTSecret    string            // secret used to sign access tokens
	AccessTTLMin int               // access token time-to-live in minutes
	BcryptCost   int               // bcrypt cost for hashing the credential table
	WatchMode    string            // per_user | global
	Seed         bool              // seed demo shows when the store is empty
	Events       bool              // publish/consume watch events over RabbitMQ
	AuthUsers    map[string]string // static credential table, username -> password
}

// Load reads configuration from environment variables. Every value has
// a development default so the server starts with no environment at
// all; defaults that would be unsafe in production are logged.
func Load() Config {
	cfg := Config{
		Env:          envStr("APP_ENV", "dev"),
		Port:         envStr("APP_PORT", "8000"),
		DBDriver:     envStr("DB_DRIVER", "sqlite3"),
		DBPath:       envStr("DB_PATH", "./tvtracker.db"),
		DBUser:       envStr("DB_USER", ""),
		DBPass:       envStr("DB_PASS", ""),
		DBHost:       envStr("DB_HOST", "localhost"),
		DBPort:       envStr("DB_PORT", "3306"),
		DBName:       envStr("DB_NAME", "tvtracker"),
		JWTSecret:    envStr("JWT_SECRET", ""),
		AccessTTLMin: envInt("ACCESS_TOKEN_TTL_MIN", 60),
		BcryptCost:   envInt("BCRYPT_COST", 10),
		WatchMode:    envStr("WATCH_MODE", WatchModePerUser),
		Seed:         envBool("SEED", false),
		Events:       envBool("WATCH_EVENTS_ENABLED", false),
		AuthUsers:    ParseAuthUsers(envStr("AUTH_USERS", DefaultAuthUsers)),
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-me"
		log.Printf("config: JWT_SECRET not set, using insecure development secret")
	}
	if cfg.WatchMode != WatchModePerUser && cfg.WatchMode != WatchModeGlobal {
		log.Printf("config: unknown WATCH_MODE %q, falling back to %s", cfg.WatchMode, WatchModePerUser)
		cfg.WatchMode = WatchModePerUser
	}
	return cfg
}

// ParseAuthUsers parses a "user:pass,user:pass" list into a credential
// map. Malformed entries are skipped with a log line rather than
// aborting startup.
func ParseAuthUsers(s string) map[string]string {
	users := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, pass, ok := strings.Cut(pair, ":")
		if !ok || name == "" || pass == "" {
			log.Printf("config: skipping malformed AUTH_USERS entry %q", pair)
			continue
		}
		users[name] = pass
	}
	return users
}
