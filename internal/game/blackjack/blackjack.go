// Package blackjack implements a single-hand blackjack session: deck, player
// and dealer hands, the turn state machine, dealer auto-play and payout
// resolution. A Session is not safe for concurrent use; the owning layer
// serialises access per session.
package blackjack

import (
	"fmt"

	"casino-engine/internal/game"
	"casino-engine/internal/random"
)

const (
	// DefaultMaxBet is the default table limit for blackjack.
	DefaultMaxBet = 10000

	// DealerStandsOn is the value at which the dealer stops drawing,
	// soft or hard.
	DealerStandsOn = 17

	blackjackMultiplier = 2.5
	winMultiplier       = 2
)

// Errors for blackjack.
var (
	ErrInvalidBet    = game.ErrNonPositiveBet
	ErrNotPlayerTurn = fmt.Errorf("%w: not the player's turn", game.ErrInvalidState)
	ErrDoubleNotOpen = fmt.Errorf("%w: double is only allowed on the first two cards", game.ErrInvalidState)
	ErrDeckExhausted = fmt.Errorf("%w: deck exhausted", game.ErrInvalidState)
)

// State is the session's position in the turn state machine.
type State string

// Session states. Transitions only move forward:
// idle -> player -> {dealer | finished} -> finished.
const (
	StateIdle     State = "idle"
	StatePlayer   State = "player"
	StateDealer   State = "dealer"
	StateFinished State = "finished"
)

// OutcomeKind classifies a finished hand.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeBlackjack OutcomeKind = "blackjack"
	OutcomeWin       OutcomeKind = "win"
	OutcomeLose      OutcomeKind = "lose"
	OutcomeBust      OutcomeKind = "bust"
	OutcomePush      OutcomeKind = "push"
)

// Outcome is produced once per finished hand. Payout is the total amount
// returned to the player, stake included.
type Outcome struct {
	Outcome     OutcomeKind `json:"outcome"`
	Payout      float64     `json:"payout"`
	Bet         float64     `json:"bet"`
	Player      Hand        `json:"player"`
	Dealer      Hand        `json:"dealer"`
	PlayerValue int         `json:"playerValue"`
	DealerValue int         `json:"dealerValue"`
}

// Clone returns a copy that shares no memory with o.
func (o *Outcome) Clone() *Outcome {
	if o == nil {
		return nil
	}
	c := *o
	c.Player = o.Player.Clone()
	c.Dealer = o.Dealer.Clone()
	return &c
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	State       State    `json:"state"`
	Bet         float64  `json:"bet"`
	Player      Hand     `json:"player"`
	Dealer      Hand     `json:"dealer"`
	PlayerValue int      `json:"playerValue"`
	DealerValue int      `json:"dealerValue"`
	Result      *Outcome `json:"result"`
}

// Option configures a Session.
type Option func(*Session)

// WithSource sets the randomness source used to shuffle the deck.
func WithSource(src random.Source) Option {
	return func(s *Session) {
		s.src = src
	}
}

// WithDeck stacks the deck used by every Start instead of shuffling a fresh
// one. Cards are drawn from the end of the slice.
func WithDeck(cards []Card) Option {
	stacked := append([]Card(nil), cards...)
	return func(s *Session) {
		s.stacked = stacked
	}
}

// Session is one blackjack hand in progress.
type Session struct {
	src     random.Source
	stacked []Card

	deck   []Card
	player Hand
	dealer Hand
	bet    float64
	state  State
	result *Outcome
}

// NewSession creates an idle session.
func NewSession(opts ...Option) *Session {
	s := &Session{src: random.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	return s
}

func (s *Session) reset() {
	s.deck = nil
	s.player = Hand{}
	s.dealer = Hand{}
	s.bet = 0
	s.state = StateIdle
	s.result = nil
}

func (s *Session) freshDeck() []Card {
	if s.stacked != nil {
		return append([]Card(nil), s.stacked...)
	}
	return random.Shuffle(s.src, NewDeck())
}

// draw removes and returns the last card of the deck.
func (s *Session) draw() (Card, error) {
	n := len(s.deck)
	if n == 0 {
		return Card{}, ErrDeckExhausted
	}
	c := s.deck[n-1]
	s.deck = s.deck[:n-1]
	return c, nil
}

// Start resets the session, deals two cards each (player, dealer, player,
// dealer) and hands the turn to the player. A natural on either side
// resolves the hand immediately.
func (s *Session) Start(bet float64) (*Snapshot, error) {
	if err := game.ValidateBet(bet, 0); err != nil {
		return nil, err
	}

	deck := s.freshDeck()
	if len(deck) < 4 {
		return nil, ErrDeckExhausted
	}

	s.reset()
	s.bet = bet
	s.deck = deck
	for i := 0; i < 2; i++ {
		p, _ := s.draw()
		s.player = append(s.player, p)
		d, _ := s.draw()
		s.dealer = append(s.dealer, d)
	}
	s.state = StatePlayer

	if BestValue(s.player) == 21 || BestValue(s.dealer) == 21 {
		if err := s.resolveDealer(); err != nil {
			return nil, err
		}
	}
	return s.State(), nil
}

// Hit draws one card for the player. A bust finishes the hand.
func (s *Session) Hit() (*Snapshot, error) {
	if s.state != StatePlayer {
		return nil, ErrNotPlayerTurn
	}

	err := s.atomic(func() error {
		c, err := s.draw()
		if err != nil {
			return err
		}
		s.player = append(s.player, c)
		if BestValue(s.player) > 21 {
			s.state = StateFinished
			return s.resolveDealer()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.State(), nil
}

// Double doubles the bet, draws exactly one card and finishes the hand.
// It is only allowed as the first action, while the player holds two cards.
func (s *Session) Double() (*Snapshot, error) {
	if s.state != StatePlayer {
		return nil, ErrNotPlayerTurn
	}
	if len(s.player) != 2 {
		return nil, ErrDoubleNotOpen
	}

	err := s.atomic(func() error {
		c, err := s.draw()
		if err != nil {
			return err
		}
		s.bet *= 2
		s.player = append(s.player, c)
		s.state = StateFinished
		return s.resolveDealer()
	})
	if err != nil {
		return nil, err
	}
	return s.State(), nil
}

// Stand ends the player's turn and lets the dealer play.
func (s *Session) Stand() (*Snapshot, error) {
	if s.state != StatePlayer {
		return nil, ErrNotPlayerTurn
	}

	err := s.atomic(func() error {
		s.state = StateDealer
		return s.resolveDealer()
	})
	if err != nil {
		return nil, err
	}
	return s.State(), nil
}

// atomic runs fn and rolls the hand back to where it was if fn fails, so a
// move that runs out of cards leaves the session untouched.
func (s *Session) atomic(fn func() error) error {
	deck, player, dealer, bet, state := s.deck, s.player, s.dealer, s.bet, s.state
	if err := fn(); err != nil {
		s.deck, s.player, s.dealer, s.bet, s.state = deck, player, dealer, bet, state
		return err
	}
	return nil
}

// resolveDealer plays the dealer's hand and settles the outcome. It runs
// the draw loop even after a player bust and is a no-op once a result
// exists.
func (s *Session) resolveDealer() error {
	if s.result != nil {
		return nil
	}

	for BestValue(s.dealer) < DealerStandsOn {
		c, err := s.draw()
		if err != nil {
			return err
		}
		s.dealer = append(s.dealer, c)
	}

	pVal := BestValue(s.player)
	dVal := BestValue(s.dealer)
	kind, payout := settle(s.player.IsBlackjack(), s.dealer.IsBlackjack(), pVal, dVal, s.bet)

	s.state = StateFinished
	s.result = &Outcome{
		Outcome:     kind,
		Payout:      payout,
		Bet:         s.bet,
		Player:      s.player.Clone(),
		Dealer:      s.dealer.Clone(),
		PlayerValue: pVal,
		DealerValue: dVal,
	}
	return nil
}

// settle applies the outcome precedence; the first matching rule wins.
func settle(playerBJ, dealerBJ bool, pVal, dVal int, bet float64) (OutcomeKind, float64) {
	switch {
	case playerBJ && !dealerBJ:
		return OutcomeBlackjack, bet * blackjackMultiplier
	case dealerBJ && !playerBJ:
		return OutcomeLose, 0
	case pVal > 21:
		return OutcomeBust, 0
	case dVal > 21:
		return OutcomeWin, bet * winMultiplier
	case pVal > dVal:
		return OutcomeWin, bet * winMultiplier
	case pVal < dVal:
		return OutcomeLose, 0
	default:
		return OutcomePush, bet
	}
}

// State returns a copy of the session at any point, mid-hand included.
func (s *Session) State() *Snapshot {
	return &Snapshot{
		State:       s.state,
		Bet:         s.bet,
		Player:      s.player.Clone(),
		Dealer:      s.dealer.Clone(),
		PlayerValue: BestValue(s.player),
		DealerValue: BestValue(s.dealer),
		Result:      s.result.Clone(),
	}
}

// Result returns a copy of the outcome. An unfinished hand is resolved
// first, as if the player stood. It returns nil, nil when no hand has been
// started.
func (s *Session) Result() (*Outcome, error) {
	switch s.state {
	case StateIdle:
		return nil, nil
	case StatePlayer, StateDealer:
		if err := s.atomic(s.resolveDealer); err != nil {
			return nil, err
		}
	}
	return s.result.Clone(), nil
}

// Phase returns the current state without copying the hands.
func (s *Session) Phase() State {
	return s.state
}
