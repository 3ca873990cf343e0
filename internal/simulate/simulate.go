// Package simulate plays many rounds of one engine in parallel and reports
// the observed return to player.
package simulate

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"casino-engine/internal/game"
	"casino-engine/internal/game/blackjack"
	"casino-engine/internal/game/roulette"
	"casino-engine/internal/game/slots"
	"casino-engine/internal/random"
)

// ErrUnknownGame is returned for a game the simulator cannot play.
var ErrUnknownGame = fmt.Errorf("%w: unknown game", game.ErrInvalidArgument)

// playerStandsOn is the simulated blackjack player's stopping value.
const playerStandsOn = 17

// Config describes a simulation run.
type Config struct {
	Game    string
	Rounds  int
	Workers int
	Bet     float64
	Seed    uint64

	// Slots is the machine to simulate; nil uses the default machine.
	Slots *slots.Config

	// RouletteBet is the selection placed every spin. Its Amount is
	// replaced by Bet. The zero value bets on red.
	RouletteBet roulette.BetRequest
}

// Tally accumulates stakes and payouts.
type Tally struct {
	Rounds      int     `json:"rounds"`
	Wins        int     `json:"wins"`
	TotalBet    float64 `json:"totalBet"`
	TotalPayout float64 `json:"totalPayout"`
}

// Record adds one settled round.
func (t *Tally) Record(bet, payout float64) {
	t.Rounds++
	t.TotalBet += bet
	t.TotalPayout += payout
	if payout > bet {
		t.Wins++
	}
}

// Merge folds another tally into t.
func (t *Tally) Merge(o Tally) {
	t.Rounds += o.Rounds
	t.Wins += o.Wins
	t.TotalBet += o.TotalBet
	t.TotalPayout += o.TotalPayout
}

// RTP returns payout over stake, or 0 before any round.
func (t Tally) RTP() float64 {
	if t.TotalBet == 0 {
		return 0
	}
	return t.TotalPayout / t.TotalBet
}

// Report is the result of a run.
type Report struct {
	Game    string `json:"game"`
	Seed    uint64 `json:"seed"`
	Workers int    `json:"workers"`
	Tally
	RTP       float64 `json:"rtp"`
	HouseEdge float64 `json:"houseEdge"`
}

// roundFunc plays one round and returns stake and payout.
type roundFunc func() (bet, payout float64, err error)

// Run plays cfg.Rounds rounds split across cfg.Workers goroutines. Each
// worker has its own source derived from cfg.Seed, so a run is
// reproducible for a given seed and worker count.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if cfg.Rounds <= 0 {
		return nil, fmt.Errorf("%w: rounds must be positive", game.ErrInvalidArgument)
	}
	if err := game.ValidateBet(cfg.Bet, 0); err != nil {
		return nil, err
	}
	workers := max(cfg.Workers, 1)
	workers = min(workers, cfg.Rounds)

	// Fail fast on configuration before starting workers.
	if _, err := newRound(cfg, random.NewSeeded(cfg.Seed)); err != nil {
		return nil, err
	}

	tallies := make([]Tally, workers)
	per, rem := cfg.Rounds/workers, cfg.Rounds%workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		n := per
		if w < rem {
			n++
		}
		src := random.NewSeeded(workerSeed(cfg.Seed, w))

		g.Go(func() error {
			play, err := newRound(cfg, src)
			if err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				bet, payout, err := play()
				if err != nil {
					return err
				}
				tallies[w].Record(bet, payout)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{Game: cfg.Game, Seed: cfg.Seed, Workers: workers}
	for _, t := range tallies {
		rep.Merge(t)
	}
	rep.RTP = rep.Tally.RTP()
	rep.HouseEdge = 1 - rep.RTP
	return rep, nil
}

func workerSeed(seed uint64, w int) uint64 {
	return seed ^ (uint64(w+1) * 0x9e3779b97f4a7c15)
}

func newRound(cfg Config, src random.Source) (roundFunc, error) {
	switch cfg.Game {
	case "blackjack":
		return blackjackRound(src, cfg.Bet), nil
	case "roulette":
		return rouletteRound(src, cfg.RouletteBet, cfg.Bet)
	case "slots":
		return slotsRound(src, cfg.Slots, cfg.Bet)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownGame, cfg.Game)
	}
}

// blackjackRound plays a fixed strategy: hit below 17, then stand.
func blackjackRound(src random.Source, bet float64) roundFunc {
	sess := blackjack.NewSession(blackjack.WithSource(src))
	return func() (float64, float64, error) {
		snap, err := sess.Start(bet)
		if err != nil {
			return 0, 0, err
		}
		for snap.State == blackjack.StatePlayer && snap.PlayerValue < playerStandsOn {
			if snap, err = sess.Hit(); err != nil {
				return 0, 0, err
			}
		}
		res, err := sess.Result()
		if err != nil {
			return 0, 0, err
		}
		return res.Bet, res.Payout, nil
	}
}

func rouletteRound(src random.Source, req roulette.BetRequest, bet float64) (roundFunc, error) {
	if req.Type == "" {
		req = roulette.BetRequest{Type: roulette.BetTypeColor, Value: string(roulette.Red)}
	}
	req.Amount = bet
	if _, err := roulette.ParseBet(req); err != nil {
		return nil, err
	}

	wheel := roulette.New(&roulette.Config{Source: src})
	bets := []roulette.BetRequest{req}
	return func() (float64, float64, error) {
		res, err := wheel.Spin(bets)
		if err != nil {
			return 0, 0, err
		}
		return bet, res.TotalPayout(), nil
	}, nil
}

func slotsRound(src random.Source, sc *slots.Config, bet float64) (roundFunc, error) {
	var cfg slots.Config
	if sc != nil {
		cfg = *sc
	}
	cfg.Source = src
	cfg.MaxBet = 0

	machine, err := slots.New(&cfg)
	if err != nil {
		return nil, err
	}
	return func() (float64, float64, error) {
		res, err := machine.Spin(bet)
		if err != nil {
			return 0, 0, err
		}
		return bet, res.Payout, nil
	}, nil
}
