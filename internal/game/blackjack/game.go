package blackjack

import (
	"casino-engine/internal/game"
	"casino-engine/internal/random"
)

// Config holds configuration for the blackjack table.
type Config struct {
	MaxBet float64
	Source random.Source
}

// BlackjackGame describes the blackjack table and creates sessions for it.
type BlackjackGame struct {
	maxBet float64
	src    random.Source
}

// New creates a BlackjackGame with the given configuration.
func New(cfg *Config) *BlackjackGame {
	g := &BlackjackGame{
		maxBet: DefaultMaxBet,
		src:    random.Default(),
	}
	if cfg != nil {
		if cfg.MaxBet > 0 {
			g.maxBet = cfg.MaxBet
		}
		if cfg.Source != nil {
			g.src = cfg.Source
		}
	}
	return g
}

// Name returns the game's display name.
func (g *BlackjackGame) Name() string {
	return "Blackjack"
}

// Command returns the command that selects this game.
func (g *BlackjackGame) Command() string {
	return "blackjack"
}

// Description returns a brief description of the game.
func (g *BlackjackGame) Description() string {
	return "Beat the dealer without going over 21. Blackjack pays 3:2, dealer stands on 17."
}

// MaxBet returns the table limit.
func (g *BlackjackGame) MaxBet() float64 {
	return g.maxBet
}

// ValidateBet checks a starting bet against the table limit. Doubling is
// allowed to exceed the limit.
func (g *BlackjackGame) ValidateBet(bet float64) error {
	return game.ValidateBet(bet, g.maxBet)
}

// NewSession creates an idle session that shuffles with the table's source.
// Extra options are applied after the table defaults.
func (g *BlackjackGame) NewSession(opts ...Option) *Session {
	return NewSession(append([]Option{WithSource(g.src)}, opts...)...)
}

var _ game.Game = (*BlackjackGame)(nil)
