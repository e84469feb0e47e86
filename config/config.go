// Package config loads runtime settings from the environment and opens the
// database they describe.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/periodic-tables/rules"
	"github.com/yeremiapane/periodic-tables/utils"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Port        string
	GinMode     string
	LogLevel    string
	DBDriver    string
	DatabaseURL string
	SeedTables  bool
	CORSOrigin  string

	Schedule rules.Config

	RateLimitRPS   float64
	RateLimitBurst int

	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Debugf("Warning: .env file not found or error loading: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Port:       get("PORT", "8080"),
		GinMode:    get("GIN_MODE", "debug"),
		LogLevel:   get("LOG_LEVEL", "info"),
		DBDriver:   strings.ToLower(get("DB_DRIVER", DriverSQLite)),
		CORSOrigin: get("CORS_ORIGIN", "*"),
		KafkaTopic: get("KAFKA_TOPIC", "periodic-tables.seating"),
	}

	switch cfg.DBDriver {
	case DriverMySQL, DriverPostgres, DriverMemory:
		cfg.DatabaseURL = get("DATABASE_URL", "")
	case DriverSQLite:
		cfg.DatabaseURL = get("DATABASE_URL", "periodic_tables.db")
	default:
		return Config{}, fmt.Errorf("DB_DRIVER: unsupported driver %q", cfg.DBDriver)
	}
	if cfg.DatabaseURL == "" && cfg.DBDriver != DriverMemory {
		return Config{}, fmt.Errorf("DATABASE_URL is required for driver %s", cfg.DBDriver)
	}

	var err error
	if cfg.SeedTables, err = strconv.ParseBool(get("SEED_TABLES", "false")); err != nil {
		return Config{}, fmt.Errorf("SEED_TABLES: %w", err)
	}

	if cfg.Schedule, err = schedule(get); err != nil {
		return Config{}, err
	}

	if cfg.RateLimitRPS, err = strconv.ParseFloat(get("RATE_LIMIT_RPS", "50"), 64); err != nil {
		return Config{}, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(get("RATE_LIMIT_BURST", "100")); err != nil {
		return Config{}, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}

	for _, broker := range strings.Split(get("KAFKA_BROKERS", ""), ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, broker)
		}
	}
	return cfg, nil
}

func schedule(get func(key, fallback string) string) (rules.Config, error) {
	sched := rules.DefaultConfig()

	loc, err := time.LoadLocation(get("RESTAURANT_TZ", "Local"))
	if err != nil {
		return rules.Config{}, fmt.Errorf("RESTAURANT_TZ: %w", err)
	}
	sched.Location = loc

	if sched.OpenAt, err = clockOffset(get("OPENING_TIME", "10:30")); err != nil {
		return rules.Config{}, fmt.Errorf("OPENING_TIME: %w", err)
	}
	if sched.CloseAt, err = clockOffset(get("CLOSING_TIME", "22:30")); err != nil {
		return rules.Config{}, fmt.Errorf("CLOSING_TIME: %w", err)
	}
	if sched.ClosingBuffer, err = time.ParseDuration(get("CLOSING_BUFFER", "60m")); err != nil {
		return rules.Config{}, fmt.Errorf("CLOSING_BUFFER: %w", err)
	}
	if sched.OpenAt > sched.CloseAt-sched.ClosingBuffer {
		return rules.Config{}, fmt.Errorf("OPENING_TIME must not be later than the last seating")
	}

	if sched.ClosedDay, err = weekday(get("CLOSED_WEEKDAY", "Tuesday")); err != nil {
		return rules.Config{}, fmt.Errorf("CLOSED_WEEKDAY: %w", err)
	}
	return sched, nil
}

func clockOffset(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func weekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// InitDB opens the SQL database selected by cfg.DBDriver.
func InitDB(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case DriverMySQL:
		dialector = mysql.Open(cfg.DatabaseURL)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseURL)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("driver %q has no SQL database", cfg.DBDriver)
	}

	logLevel := logger.Warn
	if cfg.GinMode == "release" {
		logLevel = logger.Error
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.DBDriver, err)
	}
	return db, nil
}
