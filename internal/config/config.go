// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Random   RandomConfig   `mapstructure:"random"`
	Database DatabaseConfig `mapstructure:"database"`
	Games    GamesConfig    `mapstructure:"games"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// RandomConfig holds the randomness source configuration.
// A zero seed means a fresh crypto-random seed per process.
type RandomConfig struct {
	Seed uint64 `mapstructure:"seed"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// GamesConfig holds game-specific configuration.
type GamesConfig struct {
	Blackjack BlackjackConfig `mapstructure:"blackjack"`
	Roulette  RouletteConfig  `mapstructure:"roulette"`
	Slots     SlotsConfig     `mapstructure:"slots"`
}

// BlackjackConfig holds blackjack table configuration.
type BlackjackConfig struct {
	MaxBet float64 `mapstructure:"max_bet"`
}

// RouletteConfig holds roulette table configuration.
type RouletteConfig struct {
	MaxBet float64 `mapstructure:"max_bet"`
}

// SlotsConfig holds slot machine configuration. The reel is a list rather
// than a map because viper lower-cases map keys.
type SlotsConfig struct {
	MaxBet float64        `mapstructure:"max_bet"`
	Reel   []SymbolConfig `mapstructure:"reel"`
}

// SymbolConfig is one reel symbol with its weight and three-of-a-kind
// multiplier.
type SymbolConfig struct {
	Symbol     string  `mapstructure:"symbol"`
	Weight     float64 `mapstructure:"weight"`
	Multiplier float64 `mapstructure:"multiplier"`
}

// Symbols returns the reel symbols in order.
func (s *SlotsConfig) Symbols() []string {
	out := make([]string, len(s.Reel))
	for i, sc := range s.Reel {
		out[i] = sc.Symbol
	}
	return out
}

// Weights returns the reel weights in symbol order.
func (s *SlotsConfig) Weights() []float64 {
	out := make([]float64, len(s.Reel))
	for i, sc := range s.Reel {
		out[i] = sc.Weight
	}
	return out
}

// Paytable returns the symbol -> multiplier table.
func (s *SlotsConfig) Paytable() map[string]float64 {
	out := make(map[string]float64, len(s.Reel))
	for _, sc := range s.Reel {
		out[sc.Symbol] = sc.Multiplier
	}
	return out
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in configPath, the working directory and ./config.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. DATABASE_HOST, GAMES_BLACKJACK_MAX_BET
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("random.seed", 0)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "casino")
	v.SetDefault("database.name", "casino")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("games.blackjack.max_bet", 10000)
	v.SetDefault("games.roulette.max_bet", 5000)
	v.SetDefault("games.slots.max_bet", 1000)
	v.SetDefault("games.slots.reel", []map[string]any{
		{"symbol": "7", "weight": 1, "multiplier": 100},
		{"symbol": "BAR", "weight": 2, "multiplier": 50},
		{"symbol": "CHERRY", "weight": 5, "multiplier": 20},
		{"symbol": "BELL", "weight": 3, "multiplier": 10},
		{"symbol": "LEMON", "weight": 6, "multiplier": 5},
	})
}
