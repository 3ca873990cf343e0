// Package slots implements a three-reel slot machine with weighted symbol
// selection and a configurable paytable.
package slots

import (
	"fmt"
	"math"

	"casino-engine/internal/game"
	"casino-engine/internal/random"
)

const (
	// DefaultMaxBet is the default table limit for slots.
	DefaultMaxBet = 1000

	// ReelCount is the number of reels.
	ReelCount = 3

	// BonusSymbol pays 1x when it shows on any reel of a spin with no match.
	BonusSymbol = "CHERRY"

	// pairFactor scales the three-of-a-kind multiplier for a pair.
	pairFactor = 0.1
)

// Errors for slots.
var (
	ErrInvalidBet    = game.ErrNonPositiveBet
	ErrInvalidConfig = fmt.Errorf("%w: invalid slots configuration", game.ErrInvalidArgument)
)

// Config holds the reel and paytable configuration.
// A nil field falls back to the default for that field.
type Config struct {
	Symbols  []string
	Weights  []float64
	Paytable map[string]float64
	MaxBet   float64
	Source   random.Source
}

// DefaultConfig returns the classic five-symbol machine.
func DefaultConfig() *Config {
	return &Config{
		Symbols: []string{"7", "BAR", "CHERRY", "BELL", "LEMON"},
		Weights: []float64{1, 2, 5, 3, 6},
		Paytable: map[string]float64{
			"7":      100,
			"BAR":    50,
			"CHERRY": 20,
			"BELL":   10,
			"LEMON":  5,
		},
	}
}

// CombinationType classifies a winning reel line.
type CombinationType string

// Combination types.
const (
	CombinationThree  CombinationType = "three"
	CombinationTwo    CombinationType = "two"
	CombinationSingle CombinationType = "single"
)

// Combination describes the matched symbols of a spin.
type Combination struct {
	Type       CombinationType `json:"type"`
	Symbol     string          `json:"symbol"`
	Multiplier float64         `json:"multiplier"`
}

// Reels holds the symbol shown on each reel.
type Reels [ReelCount]string

// SpinResult is the outcome of one spin.
type SpinResult struct {
	Reels       Reels        `json:"reels"`
	Bet         float64      `json:"bet"`
	Win         bool         `json:"win"`
	Payout      float64      `json:"payout"`
	Combination *Combination `json:"combination"`
}

// SlotsGame spins the reels. Its configuration never changes after New,
// so one instance serves concurrent callers.
type SlotsGame struct {
	symbols  []string
	weights  []float64
	paytable map[string]float64
	maxBet   float64
	src      random.Source
}

// New creates a SlotsGame. The configuration is copied. A weight list whose
// length does not match the symbol list is replaced by uniform weights.
func New(cfg *Config) (*SlotsGame, error) {
	def := DefaultConfig()
	if cfg == nil {
		cfg = def
	}

	symbols := cfg.Symbols
	if symbols == nil {
		symbols = def.Symbols
	}
	weights := cfg.Weights
	if weights == nil {
		weights = def.Weights
	}
	paytable := cfg.Paytable
	if paytable == nil {
		paytable = def.Paytable
	}

	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: at least one symbol is required", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		if s == "" {
			return nil, fmt.Errorf("%w: empty symbol", ErrInvalidConfig)
		}
		if seen[s] {
			return nil, fmt.Errorf("%w: duplicate symbol %q", ErrInvalidConfig, s)
		}
		seen[s] = true
	}

	if len(weights) != len(symbols) {
		weights = make([]float64, len(symbols))
		for i := range weights {
			weights[i] = 1
		}
	}
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("%w: weight %v for %q", ErrInvalidConfig, w, symbols[i])
		}
	}
	for sym, m := range paytable {
		if m < 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			return nil, fmt.Errorf("%w: multiplier %v for %q", ErrInvalidConfig, m, sym)
		}
	}

	g := &SlotsGame{
		symbols:  append([]string(nil), symbols...),
		weights:  append([]float64(nil), weights...),
		paytable: make(map[string]float64, len(paytable)),
		maxBet:   DefaultMaxBet,
		src:      random.Default(),
	}
	for k, v := range paytable {
		g.paytable[k] = v
	}
	if cfg.MaxBet > 0 {
		g.maxBet = cfg.MaxBet
	}
	if cfg.Source != nil {
		g.src = cfg.Source
	}
	return g, nil
}

// Name returns the game's display name.
func (g *SlotsGame) Name() string {
	return "Slot Machine"
}

// Command returns the command that selects this game.
func (g *SlotsGame) Command() string {
	return "slots"
}

// Description returns a brief description of the game.
func (g *SlotsGame) Description() string {
	return "Spin three reels: three of a kind pays the paytable, a pair pays a tenth of it, a lone cherry returns the bet."
}

// MaxBet returns the table limit.
func (g *SlotsGame) MaxBet() float64 {
	return g.maxBet
}

// ValidateBet checks a bet against the table limit.
func (g *SlotsGame) ValidateBet(bet float64) error {
	return game.ValidateBet(bet, g.maxBet)
}

// Symbols returns a copy of the configured symbols.
func (g *SlotsGame) Symbols() []string {
	return append([]string(nil), g.symbols...)
}

// Weights returns a copy of the effective weights.
func (g *SlotsGame) Weights() []float64 {
	return append([]float64(nil), g.weights...)
}

// Multiplier returns the three-of-a-kind multiplier for a symbol, 0 when
// the symbol is not on the paytable.
func (g *SlotsGame) Multiplier(symbol string) float64 {
	return g.paytable[symbol]
}

// Spin draws each reel independently by weight and scores the line.
func (g *SlotsGame) Spin(bet float64) (*SpinResult, error) {
	if err := game.ValidateBet(bet, 0); err != nil {
		return nil, err
	}

	var reels Reels
	for i := range reels {
		reels[i] = g.symbols[random.WeightedChoice(g.src, g.weights)]
	}
	return g.Evaluate(reels, bet)
}

// Evaluate scores a reel line. Precedence: three of a kind, then a pair,
// then the bonus symbol anywhere, otherwise no win.
func (g *SlotsGame) Evaluate(reels Reels, bet float64) (*SpinResult, error) {
	if err := game.ValidateBet(bet, 0); err != nil {
		return nil, err
	}

	res := &SpinResult{Reels: reels, Bet: bet}
	a, b, c := reels[0], reels[1], reels[2]

	switch {
	case a == b && b == c:
		mult := g.paytable[a]
		res.Combination = &Combination{Type: CombinationThree, Symbol: a, Multiplier: mult}
		res.Payout = bet * mult

	case a == b || b == c || a == c:
		sym := c
		if a == b || a == c {
			sym = a
		}
		mult := math.Max(1, math.Floor(g.paytable[sym]*pairFactor))
		res.Combination = &Combination{Type: CombinationTwo, Symbol: sym, Multiplier: mult}
		res.Payout = bet * mult

	case a == BonusSymbol || b == BonusSymbol || c == BonusSymbol:
		res.Combination = &Combination{Type: CombinationSingle, Symbol: BonusSymbol, Multiplier: 1}
		res.Payout = bet
	}

	res.Win = res.Payout > 0
	return res, nil
}

var _ game.Game = (*SlotsGame)(nil)
