package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, uint64(0), cfg.Random.Seed)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 10000.0, cfg.Games.Blackjack.MaxBet)
	assert.Equal(t, 5000.0, cfg.Games.Roulette.MaxBet)

	slots := cfg.Games.Slots
	assert.Equal(t, []string{"7", "BAR", "CHERRY", "BELL", "LEMON"}, slots.Symbols())
	assert.Equal(t, []float64{1, 2, 5, 3, 6}, slots.Weights())
	assert.Equal(t, 100.0, slots.Paytable()["7"])
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
log:
  level: debug
random:
  seed: 42
database:
  host: db.internal
games:
  roulette:
    max_bet: 250
  slots:
    reel:
      - symbol: STAR
        weight: 3
        multiplier: 40
      - symbol: CHERRY
        weight: 1
        multiplier: 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("DATABASE_PORT", "6543")
	t.Setenv("GAMES_BLACKJACK_MAX_BET", "75")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, uint64(42), cfg.Random.Seed)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 75.0, cfg.Games.Blackjack.MaxBet)
	assert.Equal(t, 250.0, cfg.Games.Roulette.MaxBet)
	assert.Equal(t, []string{"STAR", "CHERRY"}, cfg.Games.Slots.Symbols(), "symbol case is preserved")
	assert.Equal(t, map[string]float64{"STAR": 40, "CHERRY": 8}, cfg.Games.Slots.Paytable())
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unterminated"), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 1, Name: "n"}
	assert.Equal(t, "postgres://u:p@h:1/n?sslmode=disable", d.DSN())
}
