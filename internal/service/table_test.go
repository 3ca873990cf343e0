package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"casino-engine/internal/game"
	"casino-engine/internal/game/blackjack"
	"casino-engine/internal/game/roulette"
	"casino-engine/internal/game/slots"
	"casino-engine/internal/model"
	"casino-engine/internal/random"
)

type fakeRecorder struct {
	mu     sync.Mutex
	rounds []*model.Round
	err    error
}

func (f *fakeRecorder) Create(_ context.Context, r *model.Round) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rounds = append(f.rounds, r)
	return f.err
}

func (f *fakeRecorder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rounds)
}

func card(r blackjack.Rank, s blackjack.Suit) blackjack.Card {
	return blackjack.Card{Rank: r, Suit: s}
}

// deck stacks cards so they are dealt in the given order.
func deck(draws ...blackjack.Card) blackjack.Option {
	stacked := make([]blackjack.Card, len(draws))
	for i, c := range draws {
		stacked[len(draws)-1-i] = c
	}
	return blackjack.WithDeck(stacked)
}

func newTable(t interface {
	require.TestingT
	Helper()
}, cfg TableConfig) *TableService {
	t.Helper()
	nop := zerolog.Nop()
	cfg.Logger = &nop
	s, err := NewTableService(cfg)
	require.NoError(t, err)
	return s
}

func TestGames(t *testing.T) {
	s := newTable(t, TableConfig{})

	var commands []string
	for _, g := range s.Games() {
		commands = append(commands, g.Command())
	}
	assert.Equal(t, []string{"blackjack", "roulette", "slots"}, commands)

	g, ok := s.Game("slots")
	require.True(t, ok)
	assert.Equal(t, "Slot Machine", g.Name())
}

func TestBlackjack_NaturalRecordedOnStart(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTable(t, TableConfig{
		Recorder: rec,
		SessionOptions: []blackjack.Option{deck(
			card(blackjack.Ace, blackjack.Spades),
			card(blackjack.Nine, blackjack.Clubs),
			card(blackjack.King, blackjack.Diamonds),
			card(blackjack.Two, blackjack.Hearts),
			card(blackjack.Seven, blackjack.Spades),
		)},
	})
	ctx := context.Background()

	snap, err := s.StartBlackjack(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, blackjack.StateFinished, snap.State)
	require.NotNil(t, snap.Result)
	assert.Equal(t, blackjack.OutcomeBlackjack, snap.Result.Outcome)
	assert.Equal(t, 25.0, snap.Result.Payout)

	_, err = s.Stand(ctx, 1)
	assert.ErrorIs(t, err, game.ErrInvalidState)

	res, err := s.BlackjackResult(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 25.0, res.Payout)

	require.Equal(t, 1, rec.count())
	r := rec.rounds[0]
	assert.Equal(t, int64(1), r.PlayerID)
	assert.Equal(t, model.GameBlackjack, r.Game)
	assert.Equal(t, "blackjack", r.Outcome)
	assert.Equal(t, 15.0, r.Net())

	var details blackjack.Outcome
	require.NoError(t, json.Unmarshal(r.Details, &details))
	assert.Equal(t, 21, details.PlayerValue)
}

func TestBlackjack_StandRecordsOnce(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTable(t, TableConfig{
		Recorder: rec,
		SessionOptions: []blackjack.Option{deck(
			card(blackjack.Ten, blackjack.Spades),
			card(blackjack.Nine, blackjack.Clubs),
			card(blackjack.Seven, blackjack.Diamonds),
			card(blackjack.Eight, blackjack.Hearts),
		)},
	})
	ctx := context.Background()

	snap, err := s.StartBlackjack(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, blackjack.StatePlayer, snap.State)
	assert.Equal(t, 0, rec.count())

	state, err := s.BlackjackState(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 17, state.PlayerValue)

	snap, err = s.Stand(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, blackjack.OutcomePush, snap.Result.Outcome)
	assert.Equal(t, 10.0, snap.Result.Payout)

	_, err = s.BlackjackResult(ctx, 1)
	require.NoError(t, err)
	_, err = s.BlackjackState(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.count())
}

func TestBlackjack_DeckExhaustedKeepsHandOpen(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTable(t, TableConfig{
		Recorder: rec,
		SessionOptions: []blackjack.Option{deck(
			card(blackjack.Ten, blackjack.Spades),
			card(blackjack.Two, blackjack.Clubs),
			card(blackjack.Nine, blackjack.Spades),
			card(blackjack.Three, blackjack.Clubs),
		)},
	})
	ctx := context.Background()

	opened, err := s.StartBlackjack(ctx, 1, 10)
	require.NoError(t, err)

	_, err = s.Stand(ctx, 1)
	assert.ErrorIs(t, err, blackjack.ErrDeckExhausted)

	state, err := s.BlackjackState(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, opened, state)
	assert.Equal(t, 0, rec.count())

	_, err = s.StartBlackjack(ctx, 1, 10)
	assert.ErrorIs(t, err, ErrHandInProgress)
}

func TestBlackjack_ResultStandsOnOpenHand(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTable(t, TableConfig{
		Recorder: rec,
		SessionOptions: []blackjack.Option{deck(
			card(blackjack.Ten, blackjack.Spades),
			card(blackjack.Ten, blackjack.Clubs),
			card(blackjack.Nine, blackjack.Diamonds),
			card(blackjack.Seven, blackjack.Hearts),
		)},
	})
	ctx := context.Background()

	_, err := s.StartBlackjack(ctx, 3, 20)
	require.NoError(t, err)

	res, err := s.BlackjackResult(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, blackjack.OutcomeWin, res.Outcome)
	assert.Equal(t, 40.0, res.Payout)
	assert.Equal(t, 1, rec.count())
}

func TestBlackjack_Errors(t *testing.T) {
	s := newTable(t, TableConfig{
		Blackjack: blackjack.New(&blackjack.Config{MaxBet: 100}),
		SessionOptions: []blackjack.Option{deck(
			card(blackjack.Ten, blackjack.Spades),
			card(blackjack.Nine, blackjack.Clubs),
			card(blackjack.Seven, blackjack.Diamonds),
			card(blackjack.Eight, blackjack.Hearts),
			card(blackjack.Two, blackjack.Clubs),
		)},
	})
	ctx := context.Background()

	_, err := s.Hit(ctx, 1)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = s.BlackjackResult(ctx, 1)
	assert.ErrorIs(t, err, game.ErrInvalidState)

	_, err = s.StartBlackjack(ctx, 1, 101)
	assert.ErrorIs(t, err, game.ErrBetTooHigh)

	_, err = s.StartBlackjack(ctx, 1, 0)
	assert.ErrorIs(t, err, game.ErrInvalidArgument)

	_, err = s.StartBlackjack(ctx, 1, math.NaN())
	assert.ErrorIs(t, err, game.ErrNonPositiveBet)

	_, err = s.Stand(ctx, 1)
	assert.ErrorIs(t, err, ErrNoSession, "rejected bets must not open a session")

	_, err = s.StartBlackjack(ctx, 1, 100)
	require.NoError(t, err)
	_, err = s.StartBlackjack(ctx, 1, 100)
	assert.ErrorIs(t, err, ErrHandInProgress)

	snap, err := s.Double(ctx, 1)
	require.NoError(t, err, "doubling may exceed the table limit")
	assert.Equal(t, 200.0, snap.Bet)
}

func TestBlackjack_PlayersAreIsolated(t *testing.T) {
	s := newTable(t, TableConfig{Blackjack: blackjack.New(&blackjack.Config{Source: random.NewSeeded(7)})})
	ctx := context.Background()

	_, err := s.StartBlackjack(ctx, 1, 10)
	require.NoError(t, err)

	_, err = s.Hit(ctx, 2)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRecorderFailureIsNotReturned(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	s := newTable(t, TableConfig{Recorder: rec})

	res, err := s.SpinSlots(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 1, rec.count())
}

func TestSpinRoulette(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTable(t, TableConfig{
		Roulette: roulette.New(&roulette.Config{MaxBet: 50, Source: random.NewSequence([]int{17}, nil)}),
		Recorder: rec,
	})

	res, err := s.SpinRoulette(context.Background(), []roulette.BetRequest{
		{UserID: 1, Type: roulette.BetTypeNumber, Value: 17, Amount: 1},
		{UserID: 2, Type: roulette.BetTypeColor, Value: "red", Amount: 10},
		{UserID: 3, Type: "corner", Value: 5, Amount: 10},
		{UserID: 4, Type: roulette.BetTypeDozen, Value: 2, Amount: 0},
		{UserID: 5, Type: roulette.BetTypeParity, Value: "odd", Amount: math.NaN()},
	})
	require.NoError(t, err)
	assert.Equal(t, 17, res.Number)
	require.Len(t, res.Results, 5)
	assert.Equal(t, 36.0, res.Results[0].Payout)
	assert.False(t, res.Results[1].Win)
	assert.NotEmpty(t, res.Results[2].Details)
	assert.NotEmpty(t, res.Results[3].Details)
	assert.NotEmpty(t, res.Results[4].Details, "a NaN stake is a malformed bet, not a batch failure")
	assert.False(t, res.Results[4].Win)

	require.Equal(t, 2, rec.count(), "only well-formed bets are recorded")
	assert.Equal(t, "win", rec.rounds[0].Outcome)
	assert.Equal(t, int64(1), rec.rounds[0].PlayerID)
	assert.Equal(t, "lose", rec.rounds[1].Outcome)
	assert.Equal(t, model.GameRoulette, rec.rounds[1].Game)
}

func TestSpinRoulette_AboveLimitRejectsBatch(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTable(t, TableConfig{Roulette: roulette.New(&roulette.Config{MaxBet: 50}), Recorder: rec})

	_, err := s.SpinRoulette(context.Background(), []roulette.BetRequest{
		{UserID: 1, Type: roulette.BetTypeColor, Value: "red", Amount: 10},
		{UserID: 2, Type: roulette.BetTypeColor, Value: "black", Amount: 51},
	})
	assert.ErrorIs(t, err, game.ErrBetTooHigh)
	assert.Equal(t, 0, rec.count())
}

// fixedSource returns n regardless of the requested range.
type fixedSource struct{ n int }

func (f fixedSource) Int(_, _ int) int  { return f.n }
func (f fixedSource) Float64() float64 { return 0 }

// Draws outside the wheel come back as errors without recording.
func TestSpinRoulette_SourceOutsideWheel(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTable(t, TableConfig{
		Roulette: roulette.New(&roulette.Config{Source: fixedSource{n: 40}}),
		Recorder: rec,
	})

	res, err := s.SpinRoulette(context.Background(), []roulette.BetRequest{
		{UserID: 1, Type: roulette.BetTypeColor, Value: "red", Amount: 10},
	})
	assert.ErrorIs(t, err, roulette.ErrInvalidNumber)
	assert.Nil(t, res)
	assert.Equal(t, 0, rec.count())
}

func TestSpinSlots(t *testing.T) {
	rec := &fakeRecorder{}
	cfg := slots.DefaultConfig()
	cfg.Source = random.NewSequence(nil, []float64{0})
	cfg.MaxBet = 10
	sg, err := slots.New(cfg)
	require.NoError(t, err)
	s := newTable(t, TableConfig{Slots: sg, Recorder: rec})
	ctx := context.Background()

	res, err := s.SpinSlots(ctx, 9, 2)
	require.NoError(t, err)
	assert.Equal(t, slots.Reels{"7", "7", "7"}, res.Reels)
	assert.Equal(t, 200.0, res.Payout)

	require.Equal(t, 1, rec.count())
	assert.Equal(t, "three", rec.rounds[0].Outcome)
	assert.Equal(t, 198.0, rec.rounds[0].Net())

	_, err = s.SpinSlots(ctx, 9, 11)
	assert.ErrorIs(t, err, game.ErrBetTooHigh)
	_, err = s.SpinSlots(ctx, 9, -1)
	assert.ErrorIs(t, err, game.ErrInvalidArgument)
	_, err = s.SpinSlots(ctx, 9, math.NaN())
	assert.ErrorIs(t, err, game.ErrNonPositiveBet)
	assert.Equal(t, 1, rec.count())
}

// Every finished hand is recorded exactly once, whatever the actions.
func TestBlackjackRecordsEachHandOnceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Uint64().Draw(t, "seed")
		hands := rapid.IntRange(1, 10).Draw(t, "hands")

		rec := &fakeRecorder{}
		s := newTable(t, TableConfig{
			Blackjack: blackjack.New(&blackjack.Config{Source: random.NewSeeded(seed)}),
			Recorder:  rec,
		})
		ctx := context.Background()

		for h := 0; h < hands; h++ {
			snap, err := s.StartBlackjack(ctx, 1, 10)
			if err != nil {
				t.Fatalf("start: %v", err)
			}
			for snap.State == blackjack.StatePlayer {
				switch rapid.SampledFrom([]string{"hit", "stand", "double"}).Draw(t, "action") {
				case "hit":
					snap, err = s.Hit(ctx, 1)
				case "stand":
					snap, err = s.Stand(ctx, 1)
				default:
					snap, err = s.Double(ctx, 1)
					if errors.Is(err, blackjack.ErrDoubleNotOpen) {
						snap, err = s.Stand(ctx, 1)
					}
				}
				if err != nil {
					t.Fatalf("action: %v", err)
				}
			}
			if got := rec.count(); got != h+1 {
				t.Fatalf("after hand %d: %d rounds recorded", h+1, got)
			}
			if last := rec.rounds[h]; last.Payout != snap.Result.Payout {
				t.Fatalf("recorded payout %v, hand paid %v", last.Payout, snap.Result.Payout)
			}
		}
	})
}
