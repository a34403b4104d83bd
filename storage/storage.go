package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS match_results (
	match_id        TEXT PRIMARY KEY,
	ended_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	player0_user_id TEXT NOT NULL DEFAULT '',
	player0_name    TEXT NOT NULL DEFAULT '',
	player0_health  INT  NOT NULL DEFAULT 0,
	player1_user_id TEXT NOT NULL DEFAULT '',
	player1_name    TEXT NOT NULL DEFAULT '',
	player1_health  INT  NOT NULL DEFAULT 0,
	winner_index    SMALLINT,
	end_reason      TEXT NOT NULL,
	turns           INT  NOT NULL DEFAULT 0,
	canceled        BOOLEAN NOT NULL DEFAULT false
);
CREATE INDEX IF NOT EXISTS idx_match_results_ended_at ON match_results(ended_at DESC);
CREATE INDEX IF NOT EXISTS idx_match_results_player0 ON match_results(player0_user_id);
CREATE INDEX IF NOT EXISTS idx_match_results_player1 ON match_results(player1_user_id);
`

const (
	defaultLimit = 20
	maxLimit     = 100
)

// PlayerRecord is one side of a stored match.
type PlayerRecord struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Health int    `json:"health"`
}

// MatchRecord is a finished or canceled match as stored in match_results.
type MatchRecord struct {
	MatchID string          `json:"matchId"`
	EndedAt time.Time       `json:"endedAt"`
	Players [2]PlayerRecord `json:"players"`
	// WinnerIndex is 0 or 1, or -1 for a canceled match.
	WinnerIndex int    `json:"winnerIndex"`
	Reason      string `json:"reason"`
	Turns       int    `json:"turns"`
	Canceled    bool   `json:"canceled"`
}

// Winner returns the winning side, if any.
func (r MatchRecord) Winner() (PlayerRecord, bool) {
	if r.WinnerIndex < 0 || r.WinnerIndex > 1 {
		return PlayerRecord{}, false
	}
	return r.Players[r.WinnerIndex], true
}

// ClampLimit bounds a requested page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return min(limit, maxLimit)
}

// winnerColumn maps WinnerIndex to a nullable column value.
func winnerColumn(idx int) *int16 {
	if idx < 0 || idx > 1 {
		return nil
	}
	v := int16(idx)
	return &v
}

// Store persists match results in Postgres.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore connects to Postgres and ensures the match_results table exists.
// If databaseURL is empty, NewStore returns (nil, nil) and no persistence occurs.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{pool: pool, logger: slog.Default().With("tag", "storage")}, nil
}

// Close releases the connection pool. Safe on a nil Store.
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// RecordResult inserts one match result. Recording the same match twice keeps
// the first row. A nil Store records nothing.
func (s *Store) RecordResult(ctx context.Context, rec MatchRecord) error {
	if s == nil || s.pool == nil {
		return nil
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO match_results (
			match_id, ended_at,
			player0_user_id, player0_name, player0_health,
			player1_user_id, player1_name, player1_health,
			winner_index, end_reason, turns, canceled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (match_id) DO NOTHING`,
		rec.MatchID, rec.EndedAt,
		rec.Players[0].UserID, rec.Players[0].Name, rec.Players[0].Health,
		rec.Players[1].UserID, rec.Players[1].Name, rec.Players[1].Health,
		winnerColumn(rec.WinnerIndex), rec.Reason, rec.Turns, rec.Canceled,
	)
	if err != nil {
		return fmt.Errorf("insert match result %s: %w", rec.MatchID, err)
	}
	s.logger.Debug("match result recorded", "match", rec.MatchID, "reason", rec.Reason)
	return nil
}

const selectColumns = `
	match_id, ended_at,
	player0_user_id, player0_name, player0_health,
	player1_user_id, player1_name, player1_health,
	winner_index, end_reason, turns, canceled`

// RecentResults returns the latest results, newest first.
func (s *Store) RecentResults(ctx context.Context, limit int) ([]MatchRecord, error) {
	if s == nil || s.pool == nil {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM match_results ORDER BY ended_at DESC LIMIT $1`,
		ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent results: %w", err)
	}
	return collectRecords(rows)
}

// ResultsByUserID returns the latest results the user took part in, newest first.
func (s *Store) ResultsByUserID(ctx context.Context, userID string, limit int) ([]MatchRecord, error) {
	if s == nil || s.pool == nil || userID == "" {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM match_results
		 WHERE player0_user_id = $1 OR player1_user_id = $1
		 ORDER BY ended_at DESC LIMIT $2`,
		userID, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query results for %s: %w", userID, err)
	}
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]MatchRecord, error) {
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (MatchRecord, error) {
		var rec MatchRecord
		var winner *int16
		err := row.Scan(
			&rec.MatchID, &rec.EndedAt,
			&rec.Players[0].UserID, &rec.Players[0].Name, &rec.Players[0].Health,
			&rec.Players[1].UserID, &rec.Players[1].Name, &rec.Players[1].Health,
			&winner, &rec.Reason, &rec.Turns, &rec.Canceled,
		)
		rec.WinnerIndex = -1
		if winner != nil {
			rec.WinnerIndex = int(*winner)
		}
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan match results: %w", err)
	}
	return recs, nil
}
