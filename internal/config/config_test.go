package config

import (
	"testing"
	"time"

	"github.com/febuchner/settlers-of-catan/internal/game"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RESULTS_DRIVER", "")
	t.Setenv("WIN_POINTS", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverNone, cfg.ResultsDriver)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, game.DefaultRules(), cfg.Rules)
	assert.Equal(t, 500*time.Millisecond, cfg.HistorianFlushDelay)
}

func TestLoadOverlaysRules(t *testing.T) {
	t.Setenv("WIN_POINTS", "8")
	t.Setenv("BANK_SUPPLY", "25")
	t.Setenv("MAX_PLAYERS", "3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TOKEN_EXPIRE_TIME", "2h")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Rules.PointsToWin)
	assert.Equal(t, 25, cfg.Rules.BankSupply)
	assert.Equal(t, 3, cfg.Rules.MaxPlayers)
	assert.Equal(t, 7, cfg.Rules.HandLimit, "untouched rules keep their default")
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 2*time.Hour, cfg.TokenExpire)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("WIN_POINTS", "ten")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("WIN_POINTS", "")
	t.Setenv("MAX_PLAYERS", "6")
	_, err = Load()
	assert.Error(t, err, "more seats than colors")

	t.Setenv("MAX_PLAYERS", "")
	t.Setenv("RESULTS_DRIVER", "mysql")
	_, err = Load()
	assert.Error(t, err)
}

func TestDurationHelpers(t *testing.T) {
	t.Setenv("X_DURATION", "never")
	assert.Zero(t, getEnvDuration("X_DURATION", time.Hour))
	t.Setenv("X_DURATION", "garbage")
	assert.Equal(t, time.Hour, getEnvDuration("X_DURATION", time.Hour))
}
