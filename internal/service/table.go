// Package service provides business logic implementations.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"casino-engine/internal/game"
	"casino-engine/internal/game/blackjack"
	"casino-engine/internal/game/roulette"
	"casino-engine/internal/game/slots"
	"casino-engine/internal/model"
	"casino-engine/internal/pkg/lock"
)

const defaultLockTimeout = 5 * time.Second

// Errors for table operations.
var (
	ErrNoSession      = fmt.Errorf("%w: no blackjack hand for player", game.ErrInvalidState)
	ErrHandInProgress = fmt.Errorf("%w: blackjack hand already in progress", game.ErrInvalidState)
)

// RoundRecorder stores settled rounds. *repository.RoundRepository
// satisfies it.
type RoundRecorder interface {
	Create(ctx context.Context, round *model.Round) error
}

// TableConfig wires the engines into a TableService. Nil engines are
// created with their defaults.
type TableConfig struct {
	Blackjack *blackjack.BlackjackGame
	Roulette  *roulette.RouletteGame
	Slots     *slots.SlotsGame

	// SessionOptions are applied to every blackjack session the table opens.
	SessionOptions []blackjack.Option

	Recorder    RoundRecorder
	Logger      *zerolog.Logger
	LockTimeout time.Duration
}

// TableService owns the blackjack sessions, enforces table limits and
// hands every settled round to the recorder.
type TableService struct {
	blackjack   *blackjack.BlackjackGame
	roulette    *roulette.RouletteGame
	slots       *slots.SlotsGame
	sessionOpts []blackjack.Option
	registry    *game.Registry

	recorder    RoundRecorder
	log         zerolog.Logger
	locks       *lock.PlayerLock
	lockTimeout time.Duration

	mu       sync.Mutex
	sessions map[int64]*blackjack.Session
}

// NewTableService creates a TableService.
func NewTableService(cfg TableConfig) (*TableService, error) {
	s := &TableService{
		blackjack:   cfg.Blackjack,
		roulette:    cfg.Roulette,
		slots:       cfg.Slots,
		sessionOpts: cfg.SessionOptions,
		registry:    game.NewRegistry(),
		recorder:    cfg.Recorder,
		log:         log.Logger,
		locks:       lock.NewPlayerLock(),
		lockTimeout: cfg.LockTimeout,
		sessions:    make(map[int64]*blackjack.Session),
	}
	if cfg.Logger != nil {
		s.log = *cfg.Logger
	}
	if s.lockTimeout <= 0 {
		s.lockTimeout = defaultLockTimeout
	}
	if s.blackjack == nil {
		s.blackjack = blackjack.New(nil)
	}
	if s.roulette == nil {
		s.roulette = roulette.New(nil)
	}
	if s.slots == nil {
		sg, err := slots.New(nil)
		if err != nil {
			return nil, err
		}
		s.slots = sg
	}

	for _, g := range []game.Game{s.blackjack, s.roulette, s.slots} {
		if err := s.registry.Register(g); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Games returns the table's games sorted by command.
func (s *TableService) Games() []game.Game {
	return s.registry.List()
}

// Game looks up a game by command.
func (s *TableService) Game(command string) (game.Game, bool) {
	return s.registry.Get(command)
}

// StartBlackjack deals a new hand for the player. A hand that is still in
// play must be finished first.
func (s *TableService) StartBlackjack(ctx context.Context, playerID int64, bet float64) (*blackjack.Snapshot, error) {
	if err := s.registry.ValidateBet(model.GameBlackjack, bet); err != nil {
		return nil, err
	}

	var snap *blackjack.Snapshot
	err := s.locks.WithLockContext(ctx, playerID, s.lockTimeout, func() error {
		sess := s.session(playerID)
		if sess == nil {
			sess = s.blackjack.NewSession(s.sessionOpts...)
		} else if sess.Phase() == blackjack.StatePlayer || sess.Phase() == blackjack.StateDealer {
			return ErrHandInProgress
		}

		var err error
		if snap, err = sess.Start(bet); err != nil {
			return err
		}
		s.mu.Lock()
		s.sessions[playerID] = sess
		s.mu.Unlock()

		if snap.State == blackjack.StateFinished {
			s.recordHand(ctx, playerID, snap.Result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Hit draws a card for the player.
func (s *TableService) Hit(ctx context.Context, playerID int64) (*blackjack.Snapshot, error) {
	return s.play(ctx, playerID, (*blackjack.Session).Hit)
}

// Double doubles the player's bet and draws one final card.
func (s *TableService) Double(ctx context.Context, playerID int64) (*blackjack.Snapshot, error) {
	return s.play(ctx, playerID, (*blackjack.Session).Double)
}

// Stand ends the player's turn.
func (s *TableService) Stand(ctx context.Context, playerID int64) (*blackjack.Snapshot, error) {
	return s.play(ctx, playerID, (*blackjack.Session).Stand)
}

// BlackjackState returns a snapshot of the player's hand.
func (s *TableService) BlackjackState(ctx context.Context, playerID int64) (*blackjack.Snapshot, error) {
	return s.play(ctx, playerID, func(sess *blackjack.Session) (*blackjack.Snapshot, error) {
		return sess.State(), nil
	})
}

// BlackjackResult returns the outcome of the player's hand, standing on
// an unfinished one.
func (s *TableService) BlackjackResult(ctx context.Context, playerID int64) (*blackjack.Outcome, error) {
	snap, err := s.play(ctx, playerID, func(sess *blackjack.Session) (*blackjack.Snapshot, error) {
		if _, err := sess.Result(); err != nil {
			return nil, err
		}
		return sess.State(), nil
	})
	if err != nil {
		return nil, err
	}
	if snap.Result == nil {
		return nil, ErrNoSession
	}
	return snap.Result, nil
}

// play runs fn on the player's session under the player's lock and records
// the hand if fn finished it.
func (s *TableService) play(ctx context.Context, playerID int64, fn func(*blackjack.Session) (*blackjack.Snapshot, error)) (*blackjack.Snapshot, error) {
	var snap *blackjack.Snapshot
	err := s.locks.WithLockContext(ctx, playerID, s.lockTimeout, func() error {
		sess := s.session(playerID)
		if sess == nil {
			return ErrNoSession
		}

		before := sess.Phase()
		var err error
		if snap, err = fn(sess); err != nil {
			return err
		}
		if before != blackjack.StateFinished && snap.State == blackjack.StateFinished {
			s.recordHand(ctx, playerID, snap.Result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *TableService) session(playerID int64) *blackjack.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[playerID]
}

// SpinRoulette spins once for a batch of bets. Amounts above the table
// limit reject the whole batch; other malformed bets come back as losing
// results with details.
func (s *TableService) SpinRoulette(ctx context.Context, bets []roulette.BetRequest) (*roulette.SpinResult, error) {
	for _, b := range bets {
		err := s.registry.ValidateBet(model.GameRoulette, b.Amount)
		if errors.Is(err, game.ErrBetTooHigh) {
			return nil, fmt.Errorf("bet for player %d: %w", b.UserID, err)
		}
	}

	res, err := s.roulette.Spin(bets)
	if err != nil {
		return nil, err
	}
	for _, br := range res.Results {
		if br.Details != "" {
			continue
		}
		outcome := "lose"
		if br.Win {
			outcome = "win"
		}
		s.record(ctx, &model.Round{
			PlayerID: br.UserID,
			Game:     model.GameRoulette,
			Bet:      br.Amount,
			Payout:   br.Payout,
			Outcome:  outcome,
		}, struct {
			roulette.Pocket
			Bet roulette.BetResult `json:"bet"`
		}{res.Pocket, br})
	}
	return res, nil
}

// SpinSlots spins the reels once for the player.
func (s *TableService) SpinSlots(ctx context.Context, playerID int64, bet float64) (*slots.SpinResult, error) {
	if err := s.registry.ValidateBet(model.GameSlots, bet); err != nil {
		return nil, err
	}

	res, err := s.slots.Spin(bet)
	if err != nil {
		return nil, err
	}

	outcome := "lose"
	if res.Combination != nil {
		outcome = string(res.Combination.Type)
	}
	s.record(ctx, &model.Round{
		PlayerID: playerID,
		Game:     model.GameSlots,
		Bet:      bet,
		Payout:   res.Payout,
		Outcome:  outcome,
	}, res)
	return res, nil
}

func (s *TableService) recordHand(ctx context.Context, playerID int64, res *blackjack.Outcome) {
	if res == nil {
		return
	}
	s.record(ctx, &model.Round{
		PlayerID: playerID,
		Game:     model.GameBlackjack,
		Bet:      res.Bet,
		Payout:   res.Payout,
		Outcome:  string(res.Outcome),
	}, res)
}

// record logs a settled round and passes it to the recorder. Failures are
// logged only; the round has already been played.
func (s *TableService) record(ctx context.Context, round *model.Round, details any) {
	round.ID = uuid.New()
	round.CreatedAt = time.Now()

	s.log.Info().
		Str("round_id", round.ID.String()).
		Int64("player_id", round.PlayerID).
		Str("game", round.Game).
		Float64("bet", round.Bet).
		Float64("payout", round.Payout).
		Str("outcome", round.Outcome).
		Msg("Round settled")

	if s.recorder == nil {
		return
	}

	data, err := json.Marshal(details)
	if err != nil {
		s.log.Error().Err(err).Str("round_id", round.ID.String()).Msg("Failed to encode round details")
		return
	}
	round.Details = data

	if err := s.recorder.Create(ctx, round); err != nil {
		s.log.Error().Err(err).Str("round_id", round.ID.String()).Msg("Failed to record round")
	}
}
