// Package roulette implements a European single-zero roulette spin and
// scores a batch of heterogeneous bets against it. The engine keeps no
// per-spin state, so one instance serves concurrent callers.
package roulette

import (
	"encoding/json"
	"fmt"
	"strconv"

	"casino-engine/internal/game"
	"casino-engine/internal/random"
)

const (
	// MaxNumber is the highest pocket on a single-zero wheel.
	MaxNumber = 36

	// DefaultMaxBet is the default per-bet table limit.
	DefaultMaxBet = 5000
)

// ErrInvalidNumber is returned by Evaluate for a pocket outside [0, 36].
var ErrInvalidNumber = fmt.Errorf("%w: pocket must be between 0 and %d", game.ErrInvalidArgument, MaxNumber)

// Color is a pocket colour.
type Color string

// Pocket colours.
const (
	Red   Color = "red"
	Black Color = "black"
	Green Color = "green"
)

// Parity is a pocket's parity. Zero has none.
type Parity string

// Parities.
const (
	Even       Parity = "even"
	Odd        Parity = "odd"
	ParityNone Parity = "none"
)

// Dozen is 1 (1-12), 2 (13-24), 3 (25-36), or 0 for the zero pocket.
type Dozen int

// DozenNone is the dozen of the zero pocket.
const DozenNone Dozen = 0

// MarshalJSON renders DozenNone as "none" and other dozens as numbers.
func (d Dozen) MarshalJSON() ([]byte, error) {
	if d == DozenNone {
		return []byte(`"none"`), nil
	}
	return []byte(strconv.Itoa(int(d))), nil
}

// UnmarshalJSON accepts both forms written by MarshalJSON.
func (d *Dozen) UnmarshalJSON(b []byte) error {
	if string(b) == `"none"` {
		*d = DozenNone
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid dozen %s: %w", b, err)
	}
	*d = Dozen(n)
	return nil
}

var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// Pocket is a drawn number with its classification.
type Pocket struct {
	Number int    `json:"number"`
	Color  Color  `json:"color"`
	Parity Parity `json:"parity"`
	Dozen  Dozen  `json:"dozen"`
}

// Classify derives colour, parity and dozen for a pocket number.
func Classify(n int) Pocket {
	p := Pocket{Number: n, Color: Green, Parity: ParityNone, Dozen: DozenNone}
	if n == 0 {
		return p
	}
	p.Color = Black
	if redNumbers[n] {
		p.Color = Red
	}
	p.Parity = Odd
	if n%2 == 0 {
		p.Parity = Even
	}
	p.Dozen = Dozen((n-1)/12 + 1)
	return p
}

// BetResult is the outcome of one submitted bet. Payout is the amount
// returned including stake; Details explains a rejected bet.
type BetResult struct {
	UserID  int64   `json:"userId"`
	Type    BetType `json:"type"`
	Value   any     `json:"value"`
	Amount  float64 `json:"amount"`
	Win     bool    `json:"win"`
	Payout  float64 `json:"payout"`
	Details string  `json:"details,omitempty"`
}

// SpinResult is the drawn pocket plus one result per bet, in input order.
type SpinResult struct {
	Pocket
	Results []BetResult `json:"results"`
}

// TotalPayout sums the payout of every bet in the spin.
func (r *SpinResult) TotalPayout() float64 {
	var total float64
	for _, br := range r.Results {
		total += br.Payout
	}
	return total
}

// Config holds configuration for the roulette table.
type Config struct {
	MaxBet float64
	Source random.Source
}

// RouletteGame spins the wheel and scores bets.
type RouletteGame struct {
	maxBet float64
	src    random.Source
}

// New creates a RouletteGame with the given configuration.
func New(cfg *Config) *RouletteGame {
	g := &RouletteGame{
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
func (g *RouletteGame) Name() string {
	return "Roulette"
}

// Command returns the command that selects this game.
func (g *RouletteGame) Command() string {
	return "roulette"
}

// Description returns a brief description of the game.
func (g *RouletteGame) Description() string {
	return "European roulette: number pays 36x, dozen 3x, color and parity 2x."
}

// MaxBet returns the per-bet table limit.
func (g *RouletteGame) MaxBet() float64 {
	return g.maxBet
}

// ValidateBet checks one bet amount against the table limit.
func (g *RouletteGame) ValidateBet(bet float64) error {
	return game.ValidateBet(bet, g.maxBet)
}

// Spin draws a pocket uniformly from [0, 36] and scores the bets. A source
// that draws outside the wheel yields ErrInvalidNumber.
func (g *RouletteGame) Spin(bets []BetRequest) (*SpinResult, error) {
	return g.Evaluate(random.Int(g.src, 0, MaxNumber), bets)
}

// Evaluate scores the bets against a known pocket. A malformed bet gets a
// non-winning result with a reason instead of failing the batch.
func (g *RouletteGame) Evaluate(number int, bets []BetRequest) (*SpinResult, error) {
	if number < 0 || number > MaxNumber {
		return nil, ErrInvalidNumber
	}

	pocket := Classify(number)
	results := make([]BetResult, 0, len(bets))
	for _, req := range bets {
		results = append(results, score(pocket, req))
	}
	return &SpinResult{Pocket: pocket, Results: results}, nil
}

func score(p Pocket, req BetRequest) BetResult {
	res := BetResult{
		UserID: req.UserID,
		Type:   req.Type,
		Value:  req.Value,
		Amount: req.Amount,
	}

	bet, err := ParseBet(req)
	if err != nil {
		res.Details = err.Error()
		return res
	}

	res.Value = bet.Selection.Value()
	if bet.Selection.wins(p) {
		res.Win = true
		res.Payout = bet.Amount * bet.Selection.multiplier()
	}
	return res
}

var _ game.Game = (*RouletteGame)(nil)
