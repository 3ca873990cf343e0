// Package game defines the interface shared by the casino engines, the
// registry that looks them up by command, and the error kinds they report.
package game

import (
	"errors"
	"fmt"
	"math"
)

// Error kinds reported by every engine. Engine-specific errors wrap one of
// these so callers can branch with errors.Is.
var (
	// ErrInvalidArgument is returned when a bet amount is not positive or a
	// bet/config value has the wrong shape for its declared type.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState is returned when an operation is not permitted in the
	// current session state.
	ErrInvalidState = errors.New("invalid state")

	// ErrBetTooHigh is returned when a bet exceeds the table limit.
	ErrBetTooHigh = fmt.Errorf("%w: bet exceeds maximum allowed", ErrInvalidArgument)

	// ErrNonPositiveBet is returned when a bet amount is zero, negative,
	// NaN or infinite.
	ErrNonPositiveBet = fmt.Errorf("%w: bet must be a positive finite number", ErrInvalidArgument)
)

// Game describes an engine to the owning layer.
// Engines keep their own play methods; this interface only carries what the
// table needs to list games and enforce limits.
type Game interface {
	// Name returns the display name (e.g., "Blackjack").
	Name() string

	// Command returns the short command that selects this game (e.g., "slots").
	Command() string

	// Description returns a one-line description of the rules.
	Description() string

	// MaxBet returns the table limit. Zero means no limit.
	MaxBet() float64

	// ValidateBet checks a single bet amount against the table limits.
	ValidateBet(bet float64) error
}

// ValidateBet is the common bet check: bet must be positive and finite and,
// when maxBet is non-zero, not above it.
func ValidateBet(bet, maxBet float64) error {
	if !(bet > 0) || math.IsInf(bet, 1) {
		return ErrNonPositiveBet
	}
	if maxBet > 0 && bet > maxBet {
		return fmt.Errorf("%w: max bet is %g", ErrBetTooHigh, maxBet)
	}
	return nil
}
