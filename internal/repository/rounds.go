// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"casino-engine/internal/model"
)

// ErrInvalidRound is returned when a round is missing required fields.
var ErrInvalidRound = errors.New("invalid round")

const schema = `
	CREATE TABLE IF NOT EXISTS rounds (
		id UUID PRIMARY KEY,
		player_id BIGINT NOT NULL,
		game VARCHAR(32) NOT NULL,
		bet DOUBLE PRECISION NOT NULL,
		payout DOUBLE PRECISION NOT NULL,
		outcome VARCHAR(32) NOT NULL,
		details JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_rounds_player_created ON rounds (player_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_rounds_game ON rounds (game);
`

// Migrate creates the rounds table if it does not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate rounds: %w", err)
	}
	return nil
}

// RoundRepository persists settled rounds.
type RoundRepository struct {
	pool *pgxpool.Pool
}

// NewRoundRepository creates a new RoundRepository instance.
func NewRoundRepository(pool *pgxpool.Pool) *RoundRepository {
	return &RoundRepository{pool: pool}
}

// Create inserts a round. A zero ID is replaced with a fresh UUID and the
// stored creation time is written back to the round.
func (r *RoundRepository) Create(ctx context.Context, round *model.Round) error {
	if round == nil || round.Game == "" {
		return ErrInvalidRound
	}
	if round.ID == uuid.Nil {
		round.ID = uuid.New()
	}
	details := round.Details
	if len(details) == 0 {
		details = []byte("{}")
	}

	const query = `
		INSERT INTO rounds (id, player_id, game, bet, payout, outcome, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING created_at
	`

	var createdAt time.Time
	err := r.pool.QueryRow(ctx, query,
		round.ID.String(),
		round.PlayerID,
		round.Game,
		round.Bet,
		round.Payout,
		round.Outcome,
		details,
	).Scan(&createdAt)
	if err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}

	round.Details = details
	round.CreatedAt = createdAt
	return nil
}

// GetByPlayer returns a player's rounds, newest first.
func (r *RoundRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*model.Round, error) {
	const query = `
		SELECT id, player_id, game, bet, payout, outcome, details, created_at
		FROM rounds
		WHERE player_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*model.Round
	for rows.Next() {
		var (
			round model.Round
			id    string
		)
		err := rows.Scan(
			&id,
			&round.PlayerID,
			&round.Game,
			&round.Bet,
			&round.Payout,
			&round.Outcome,
			&round.Details,
			&round.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		if round.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse round id: %w", err)
		}
		rounds = append(rounds, &round)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}

	return rounds, nil
}

// NetByPlayer returns the player's total payout minus total stake.
func (r *RoundRepository) NetByPlayer(ctx context.Context, playerID int64) (float64, error) {
	const query = `
		SELECT COALESCE(SUM(payout - bet), 0)
		FROM rounds
		WHERE player_id = $1
	`

	var net float64
	if err := r.pool.QueryRow(ctx, query, playerID).Scan(&net); err != nil {
		return 0, fmt.Errorf("failed to sum rounds: %w", err)
	}
	return net, nil
}
