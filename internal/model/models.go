// Package model defines the records the table layer persists.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Game identifiers stored on rounds.
const (
	GameBlackjack = "blackjack"
	GameRoulette  = "roulette"
	GameSlots     = "slots"
)

// Round is one settled wager: a finished blackjack hand, one roulette bet
// of a spin, or one slots spin. Payout is the amount returned to the player
// including stake; Details holds the engine result as JSON.
type Round struct {
	ID        uuid.UUID `db:"id"`
	PlayerID  int64     `db:"player_id"`
	Game      string    `db:"game"`
	Bet       float64   `db:"bet"`
	Payout    float64   `db:"payout"`
	Outcome   string    `db:"outcome"`
	Details   []byte    `db:"details"`
	CreatedAt time.Time `db:"created_at"`
}

// Net returns the player's gain on the round (negative on a loss).
func (r *Round) Net() float64 {
	return r.Payout - r.Bet
}
