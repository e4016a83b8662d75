// Package config collects process settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/febuchner/settlers-of-catan/internal/game"
	"github.com/sirupsen/logrus"
)

// Results drivers understood by RESULTS_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverNone     = "none"
)

// Config is everything the server and historian read at start-up.
type Config struct {
	Port      string
	LogLevel  logrus.Level
	LogFormat string

	RedisAddr string
	RedisDB   int
	QueueName string

	ResultsDriver string
	PostgresDSN   string
	SQLitePath    string

	TokenExpire    time.Duration
	TablePassword  string
	ChatRatePerSec float64
	ChatBurst      int
	AllowedOrigins []string

	HistorianBatchSize  int
	HistorianFlushDelay time.Duration
	GameInactivity      time.Duration

	Rules game.Rules
}

// Load reads the environment. Unparseable values fall back to defaults,
// except rule overrides, which must satisfy game.Rules.Update.
func Load() (Config, error) {
	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = logrus.InfoLevel
	}

	cfg := Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  level,
		LogFormat: getEnv("LOG_FORMAT", "text"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:   getEnvInt("REDIS_DB", 0),
		QueueName: getEnv("HISTORIAN_QUEUE_NAME", "catan_actions"),

		ResultsDriver: strings.ToLower(getEnv("RESULTS_DRIVER", DriverNone)),
		PostgresDSN: fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
			getEnv("POSTGRES_USER", "postgres"),
			getEnv("POSTGRES_PASSWORD", ""),
			getEnv("PG_HOST", "localhost"),
			getEnv("PG_PORT", "5432"),
			getEnv("PG_DATABASE", "catan"),
		),
		SQLitePath: getEnv("SQLITE_PATH", "data/catan.db"),

		TokenExpire:    getEnvDuration("TOKEN_EXPIRE_TIME", 0),
		TablePassword:  os.Getenv("TABLE_PASSWORD"),
		ChatRatePerSec: getEnvFloat("CHAT_RATE_PER_SEC", 1),
		ChatBurst:      getEnvInt("CHAT_BURST", 5),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		HistorianBatchSize:  getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		HistorianFlushDelay: time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		GameInactivity:      time.Duration(getEnvInt("GAME_INACTIVITY_TIMEOUT_SEC", 600)) * time.Second,

		Rules: game.DefaultRules(),
	}

	switch cfg.ResultsDriver {
	case DriverPostgres, DriverSQLite, DriverNone:
	default:
		return cfg, fmt.Errorf("unknown RESULTS_DRIVER %q", cfg.ResultsDriver)
	}

	overrides := map[string]interface{}{}
	for env, key := range map[string]string{
		"WIN_POINTS":  "pointsToWin",
		"BANK_SUPPLY": "bankSupply",
		"MAX_PLAYERS": "maxPlayers",
	} {
		s := os.Getenv(env)
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", env, err)
		}
		overrides[key] = v
	}
	if cfg.Rules, err = game.ParseRules(overrides, cfg.Rules); err != nil {
		return cfg, fmt.Errorf("rule overrides: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration accepts Go durations; "never" and "0" mean no limit.
func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	switch s {
	case "":
		return def
	case "never", "0":
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
