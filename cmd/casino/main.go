// Command casino drives the blackjack, roulette and slots engines from the
// command line and prints every result as JSON.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"casino-engine/internal/config"
	"casino-engine/internal/game/blackjack"
	"casino-engine/internal/game/roulette"
	"casino-engine/internal/game/slots"
	"casino-engine/internal/pkg/db"
	"casino-engine/internal/random"
	"casino-engine/internal/repository"
	"casino-engine/internal/service"
)

var cli struct {
	Config string `help:"directory containing config.yaml" default:"config" type:"path"`
	Debug  bool   `help:"enable debug logging"`
	Seed   uint64 `help:"random seed; 0 uses the configured seed or a fresh one" default:"0"`
	Record bool   `help:"persist settled rounds to PostgreSQL"`
	Player int64  `help:"player id the rounds are played for" default:"1"`

	Games     GamesCmd     `cmd:"" help:"list the available games"`
	Blackjack BlackjackCmd `cmd:"" help:"play one blackjack hand"`
	Roulette  RouletteCmd  `cmd:"" help:"spin the roulette wheel once"`
	Slots     SlotsCmd     `cmd:"" help:"spin the slot machine"`
	Simulate  SimulateCmd  `cmd:"" help:"play many rounds in parallel and report the return to player"`
	History   HistoryCmd   `cmd:"" help:"show recorded rounds for the player (requires the database)"`
}

// app is what every command runs against.
type app struct {
	table  *service.TableService
	rounds *repository.RoundRepository
	player int64
	seed   uint64
	slots  *slots.Config
	in     io.Reader
	out    io.Writer
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("casino"),
		kong.Description("Blackjack, roulette and slots engines"),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(cli.Debug, cfg.Log.Level)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, cleanup, err := newApp(ctx, cfg, kctx.Command() == "history")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer cleanup()

	switch kctx.Command() {
	case "games":
		err = cli.Games.Run(a)
	case "blackjack":
		err = cli.Blackjack.Run(ctx, a)
	case "roulette":
		err = cli.Roulette.Run(ctx, a)
	case "slots":
		err = cli.Slots.Run(ctx, a)
	case "simulate":
		err = cli.Simulate.Run(ctx, a)
	case "history":
		err = cli.History.Run(ctx, a)
	default:
		err = fmt.Errorf("unknown command: %s", kctx.Command())
	}
	if err != nil {
		cleanup()
		log.Fatal().Err(err).Str("command", kctx.Command()).Msg("Command failed")
	}
}

func setupLogger(debug bool, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)
}

// newApp builds the engines from configuration and, when recording or
// when needDB is set, connects to PostgreSQL.
func newApp(ctx context.Context, cfg *config.Config, needDB bool) (*app, func(), error) {
	seed := cli.Seed
	if seed == 0 {
		seed = cfg.Random.Seed
	}
	if seed == 0 {
		var err error
		if seed, err = random.NewSeed(); err != nil {
			return nil, nil, err
		}
	}
	log.Debug().Uint64("seed", seed).Msg("Random source seeded")
	src := random.NewSeeded(seed)

	slotsCfg := slotsConfig(&cfg.Games.Slots, src)
	sg, err := slots.New(slotsCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("slots: %w", err)
	}

	a := &app{player: cli.Player, seed: seed, slots: slotsCfg, in: os.Stdin, out: os.Stdout}
	cleanup := func() {}

	tableCfg := service.TableConfig{
		Blackjack: blackjack.New(&blackjack.Config{MaxBet: cfg.Games.Blackjack.MaxBet, Source: src}),
		Roulette:  roulette.New(&roulette.Config{MaxBet: cfg.Games.Roulette.MaxBet, Source: src}),
		Slots:     sg,
	}

	if cli.Record || needDB {
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		cleanup = pool.Close

		if err := repository.Migrate(ctx, pool.Pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		a.rounds = repository.NewRoundRepository(pool.Pool)
		if cli.Record {
			tableCfg.Recorder = a.rounds
		}
	}

	if a.table, err = service.NewTableService(tableCfg); err != nil {
		cleanup()
		return nil, nil, err
	}
	return a, cleanup, nil
}

// slotsConfig maps the configured reel onto the engine config. An empty
// reel keeps the engine defaults.
func slotsConfig(sc *config.SlotsConfig, src random.Source) *slots.Config {
	cfg := &slots.Config{MaxBet: sc.MaxBet, Source: src}
	if len(sc.Reel) > 0 {
		cfg.Symbols = sc.Symbols()
		cfg.Weights = sc.Weights()
		cfg.Paytable = sc.Paytable()
	}
	return cfg
}
