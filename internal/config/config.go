package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	pkgcfg "github.com/Skotchmaster/bus_pass/pkg/config"
	pkgdb "github.com/Skotchmaster/bus_pass/pkg/db"
	"github.com/Skotchmaster/bus_pass/pkg/hash"
	"github.com/Skotchmaster/bus_pass/pkg/middleware/ratelimit"
)

type Config struct {
	ServiceName string
	Port        string
	LogLevel    string

	DatabaseDriver string
	DatabaseURL    string

	JWTSecret    []byte
	SessionTTL   time.Duration
	PassWindow   time.Duration
	BcryptCost   int
	CookieSecure bool

	KafkaBrokers []string
	KafkaTopic   string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RateLimit     ratelimit.Config

	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// LoadDotEnv reads .env when present; a missing file only gets a notice.
func LoadDotEnv() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
}

// Load reads the process environment. JWT_SECRET is the only hard
// requirement; everything else has a default or switches a feature off.
func Load() (Config, error) {
	cfg, err := LoadForSeed()
	if err != nil {
		return Config{}, err
	}
	if err := pkgcfg.Require(string(cfg.JWTSecret), "JWT_SECRET"); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadForSeed is Load for tools that only touch the database, such as
// create-admin. JWT_SECRET may be unset.
func LoadForSeed() (Config, error) {
	cfg := Config{
		ServiceName: pkgcfg.EnvDefault("SERVICE_NAME", "bus_pass"),
		Port:        pkgcfg.EnvDefault("SERVER_PORT", "8080"),
		LogLevel:    pkgcfg.EnvDefault("LOG_LEVEL", "info"),

		DatabaseDriver: strings.ToLower(pkgcfg.EnvDefault("DATABASE_DRIVER", pkgdb.DriverPostgres)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		JWTSecret:    []byte(os.Getenv("JWT_SECRET")),
		SessionTTL:   pkgcfg.EnvDurationDefault("SESSION_TTL", time.Hour),
		PassWindow:   pkgcfg.EnvDurationDefault("PASS_WINDOW", 30*24*time.Hour),
		BcryptCost:   pkgcfg.EnvIntDefault("BCRYPT_COST", hash.DefaultCost),
		CookieSecure: pkgcfg.EnvBoolDefault("COOKIE_SECURE", true),

		KafkaBrokers: pkgcfg.CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   pkgcfg.EnvDefault("KAFKA_TOPIC", "account_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    pkgcfg.EnvDefault("ES_INDEX", "buspass_docs"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       pkgcfg.EnvIntDefault("REDIS_DB", 0),
		RateLimit: ratelimit.Config{
			Enabled:        pkgcfg.EnvBoolDefault("RATE_LIMIT_ENABLED", false),
			Capacity:       pkgcfg.EnvIntDefault("RATE_LIMIT_CAPACITY", 10),
			RefillInterval: pkgcfg.EnvDurationDefault("RATE_LIMIT_REFILL_INTERVAL", time.Minute),
			Prefix:         "rl:login",
		},

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   os.Getenv("OPENAI_MODEL"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     pkgcfg.EnvDefault("ADMIN_NAME", "Administrator"),
	}

	switch cfg.DatabaseDriver {
	case pkgdb.DriverPostgres, pkgdb.DriverSQLite:
	default:
		return Config{}, fmt.Errorf("DATABASE_DRIVER %q: want %s or %s", cfg.DatabaseDriver, pkgdb.DriverPostgres, pkgdb.DriverSQLite)
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseDriver != pkgdb.DriverSQLite {
			return Config{}, pkgcfg.Require(cfg.DatabaseURL, "DATABASE_URL")
		}
		cfg.DatabaseURL = "file:bus_pass.db?_pragma=foreign_keys(1)"
	}
	return cfg, nil
}
