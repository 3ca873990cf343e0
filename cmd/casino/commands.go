package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"casino-engine/internal/game"
	"casino-engine/internal/game/blackjack"
	"casino-engine/internal/game/roulette"
	"casino-engine/internal/simulate"
)

type GamesCmd struct{}

type BlackjackCmd struct {
	Bet     float64  `help:"stake for the hand" required:""`
	Actions []string `help:"actions to play in order (hit, stand, double); read from stdin when omitted" sep:","`
}

type RouletteCmd struct {
	Bets []string `name:"bet" help:"bet as type:value:amount, e.g. color:red:10 or number:17:5; repeatable" required:""`
}

type SlotsCmd struct {
	Bet   float64 `help:"stake per spin" required:""`
	Spins int     `help:"number of spins" default:"1"`
}

type SimulateCmd struct {
	Game      string  `help:"game to simulate" enum:"blackjack,roulette,slots" required:""`
	Rounds    int     `help:"number of rounds" default:"100000"`
	Workers   int     `help:"parallel workers" default:"4"`
	Bet       float64 `help:"stake per round" default:"1"`
	Selection string  `help:"roulette selection as type:value" default:"color:red"`
}

type HistoryCmd struct {
	Limit int `help:"maximum rounds to show" default:"20"`
}

type gameInfo struct {
	Command     string  `json:"command"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MaxBet      float64 `json:"maxBet"`
}

func (cmd *GamesCmd) Run(a *app) error {
	var out []gameInfo
	for _, g := range a.table.Games() {
		out = append(out, gameInfo{
			Command:     g.Command(),
			Name:        g.Name(),
			Description: g.Description(),
			MaxBet:      g.MaxBet(),
		})
	}
	return writeJSON(a.out, out)
}

func (cmd *BlackjackCmd) Run(ctx context.Context, a *app) error {
	snap, err := a.table.StartBlackjack(ctx, a.player, cmd.Bet)
	if err != nil {
		return err
	}
	if err := writeJSON(a.out, snap); err != nil {
		return err
	}

	next := actionReader(cmd.Actions, a.in)
	for snap.State == blackjack.StatePlayer {
		action, ok := next()
		if !ok {
			break
		}
		switch action {
		case "hit", "h":
			snap, err = a.table.Hit(ctx, a.player)
		case "stand", "s":
			snap, err = a.table.Stand(ctx, a.player)
		case "double", "d":
			snap, err = a.table.Double(ctx, a.player)
		default:
			return fmt.Errorf("%w: unknown action %q", game.ErrInvalidArgument, action)
		}
		if err != nil {
			return err
		}
		if err := writeJSON(a.out, snap); err != nil {
			return err
		}
	}

	// Out of actions: the hand stands.
	res, err := a.table.BlackjackResult(ctx, a.player)
	if err != nil {
		return err
	}
	return writeJSON(a.out, res)
}

// actionReader yields the given actions, or lines from r when there are
// none. Blank lines are skipped.
func actionReader(actions []string, r io.Reader) func() (string, bool) {
	if len(actions) > 0 {
		i := 0
		return func() (string, bool) {
			for i < len(actions) {
				a := normalizeAction(actions[i])
				i++
				if a != "" {
					return a, true
				}
			}
			return "", false
		}
	}

	scanner := bufio.NewScanner(r)
	return func() (string, bool) {
		for scanner.Scan() {
			if a := normalizeAction(scanner.Text()); a != "" {
				return a, true
			}
		}
		return "", false
	}
}

func normalizeAction(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (cmd *RouletteCmd) Run(ctx context.Context, a *app) error {
	bets := make([]roulette.BetRequest, 0, len(cmd.Bets))
	for _, s := range cmd.Bets {
		req, err := parseBet(s)
		if err != nil {
			return err
		}
		req.UserID = a.player
		bets = append(bets, req)
	}

	res, err := a.table.SpinRoulette(ctx, bets)
	if err != nil {
		return err
	}
	return writeJSON(a.out, res)
}

// parseBet reads "type:value:amount". A value that parses as an integer is
// passed as a number so "number:17:5" and "dozen:2:5" work; anything else
// stays a string for the engine to judge.
func parseBet(s string) (roulette.BetRequest, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return roulette.BetRequest{}, fmt.Errorf("%w: bet %q must be type:value:amount", game.ErrInvalidArgument, s)
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return roulette.BetRequest{}, fmt.Errorf("%w: bet amount %q: %v", game.ErrInvalidArgument, parts[2], err)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return roulette.BetRequest{}, fmt.Errorf("%w: bet amount %q is not finite", game.ErrInvalidArgument, parts[2])
	}

	req := roulette.BetRequest{
		Type:   roulette.BetType(strings.ToLower(strings.TrimSpace(parts[0]))),
		Amount: amount,
	}
	value := strings.TrimSpace(parts[1])
	if n, err := strconv.Atoi(value); err == nil {
		req.Value = n
	} else {
		req.Value = strings.ToLower(value)
	}
	return req, nil
}

func (cmd *SlotsCmd) Run(ctx context.Context, a *app) error {
	if cmd.Spins < 1 {
		return fmt.Errorf("%w: spins must be at least 1", game.ErrInvalidArgument)
	}
	for i := 0; i < cmd.Spins; i++ {
		res, err := a.table.SpinSlots(ctx, a.player, cmd.Bet)
		if err != nil {
			return err
		}
		if err := writeJSON(a.out, res); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *SimulateCmd) Run(ctx context.Context, a *app) error {
	cfg := simulate.Config{
		Game:    cmd.Game,
		Rounds:  cmd.Rounds,
		Workers: cmd.Workers,
		Bet:     cmd.Bet,
		Seed:    a.seed,
		Slots:   a.slots,
	}
	if cmd.Game == "roulette" {
		req, err := parseBet(cmd.Selection + ":" + strconv.FormatFloat(cmd.Bet, 'f', -1, 64))
		if err != nil {
			return err
		}
		cfg.RouletteBet = req
	}

	rep, err := simulate.Run(ctx, cfg)
	if err != nil {
		return err
	}
	return writeJSON(a.out, rep)
}

type historyOutput struct {
	PlayerID int64        `json:"playerId"`
	Net      float64      `json:"net"`
	Rounds   []roundEntry `json:"rounds"`
}

type roundEntry struct {
	ID      string          `json:"id"`
	Game    string          `json:"game"`
	Bet     float64         `json:"bet"`
	Payout  float64         `json:"payout"`
	Outcome string          `json:"outcome"`
	Details json.RawMessage `json:"details"`
	At      string          `json:"at"`
}

func (cmd *HistoryCmd) Run(ctx context.Context, a *app) error {
	if a.rounds == nil {
		return fmt.Errorf("history requires a database connection")
	}

	rounds, err := a.rounds.GetByPlayer(ctx, a.player, cmd.Limit)
	if err != nil {
		return err
	}
	net, err := a.rounds.NetByPlayer(ctx, a.player)
	if err != nil {
		return err
	}

	out := historyOutput{PlayerID: a.player, Net: net, Rounds: make([]roundEntry, 0, len(rounds))}
	for _, r := range rounds {
		out.Rounds = append(out.Rounds, roundEntry{
			ID:      r.ID.String(),
			Game:    r.Game,
			Bet:     r.Bet,
			Payout:  r.Payout,
			Outcome: r.Outcome,
			Details: r.Details,
			At:      r.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return writeJSON(a.out, out)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
