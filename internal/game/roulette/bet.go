package roulette

import (
	"fmt"
	"math"

	"casino-engine/internal/game"
)

// BetType names a bet kind in caller input.
type BetType string

// Supported bet types.
const (
	BetTypeNumber BetType = "number"
	BetTypeColor  BetType = "color"
	BetTypeParity BetType = "parity"
	BetTypeDozen  BetType = "dozen"
)

// Errors for bet parsing. All wrap game.ErrInvalidArgument.
var (
	ErrUnknownBetType = fmt.Errorf("%w: unknown bet type", game.ErrInvalidArgument)
	ErrInvalidValue   = fmt.Errorf("%w: invalid bet value", game.ErrInvalidArgument)
	ErrInvalidAmount  = fmt.Errorf("%w: bet amount must be positive", game.ErrInvalidArgument)
)

// BetRequest is a bet as submitted by a caller. Value is loosely typed
// (a JSON number or string); ParseBet turns it into a typed Bet.
type BetRequest struct {
	UserID int64   `json:"userId"`
	Type   BetType `json:"type"`
	Value  any     `json:"value"`
	Amount float64 `json:"amount"`
}

// Selection is what a bet wins on. It is implemented only by the bet kinds
// in this package.
type Selection interface {
	Type() BetType
	Value() any
	wins(p Pocket) bool
	multiplier() float64
}

// NumberBet is a straight-up bet on one number; pays 36x including stake.
type NumberBet struct{ Number int }

func (b NumberBet) Type() BetType { return BetTypeNumber }
func (b NumberBet) Value() any { return b.Number }
func (b NumberBet) wins(p Pocket) bool { return p.Number == b.Number }
func (b NumberBet) multiplier() float64 { return 36 }

// ColorBet is a bet on the pocket colour; pays 2x including stake.
type ColorBet struct{ Color Color }

func (b ColorBet) Type() BetType { return BetTypeColor }
func (b ColorBet) Value() any { return string(b.Color) }
func (b ColorBet) wins(p Pocket) bool { return p.Color == b.Color }
func (b ColorBet) multiplier() float64 { return 2 }

// ParityBet is a bet on even or odd; pays 2x including stake. Zero is
// neither.
type ParityBet struct{ Parity Parity }

func (b ParityBet) Type() BetType { return BetTypeParity }
func (b ParityBet) Value() any { return string(b.Parity) }
func (b ParityBet) wins(p Pocket) bool { return p.Parity == b.Parity }
func (b ParityBet) multiplier() float64 { return 2 }

// DozenBet is a bet on 1-12, 13-24 or 25-36; pays 3x including stake.
type DozenBet struct{ Dozen Dozen }

func (b DozenBet) Type() BetType { return BetTypeDozen }
func (b DozenBet) Value() any { return int(b.Dozen) }
func (b DozenBet) wins(p Pocket) bool { return p.Dozen == b.Dozen }
func (b DozenBet) multiplier() float64 { return 3 }

// Bet is a validated bet.
type Bet struct {
	UserID    int64
	Amount    float64
	Selection Selection
}

// ParseBet validates a caller bet and converts it to a typed Bet.
func ParseBet(req BetRequest) (Bet, error) {
	sel, err := parseSelection(req.Type, req.Value)
	if err != nil {
		return Bet{}, err
	}
	if req.Amount <= 0 || math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) {
		return Bet{}, ErrInvalidAmount
	}
	return Bet{UserID: req.UserID, Amount: req.Amount, Selection: sel}, nil
}

func parseSelection(t BetType, value any) (Selection, error) {
	switch t {
	case BetTypeNumber:
		n, ok := toInt(value)
		if !ok {
			return nil, fmt.Errorf("%w: number bet needs a numeric value", ErrInvalidValue)
		}
		if n < 0 || n > MaxNumber {
			return nil, fmt.Errorf("%w: number must be between 0 and %d", ErrInvalidValue, MaxNumber)
		}
		return NumberBet{Number: n}, nil

	case BetTypeColor:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: color bet needs a string value", ErrInvalidValue)
		}
		c := Color(s)
		if c != Red && c != Black && c != Green {
			return nil, fmt.Errorf("%w: color must be red, black or green", ErrInvalidValue)
		}
		return ColorBet{Color: c}, nil

	case BetTypeParity:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: parity bet needs a string value", ErrInvalidValue)
		}
		p := Parity(s)
		if p != Even && p != Odd {
			return nil, fmt.Errorf("%w: parity must be even or odd", ErrInvalidValue)
		}
		return ParityBet{Parity: p}, nil

	case BetTypeDozen:
		n, ok := toInt(value)
		if !ok {
			return nil, fmt.Errorf("%w: dozen bet needs a numeric value", ErrInvalidValue)
		}
		if n < 1 || n > 3 {
			return nil, fmt.Errorf("%w: dozen must be 1, 2 or 3", ErrInvalidValue)
		}
		return DozenBet{Dozen: Dozen(n)}, nil

	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownBetType, t)
	}
}

// toInt accepts Go integers and integral float64 values, the form JSON
// numbers decode to.
func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int32:
		return int(val), true
	case int64:
		return int(val), true
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return int(val), true
	case interface{ Int64() (int64, error) }:
		n, err := val.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
