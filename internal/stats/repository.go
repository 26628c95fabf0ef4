package stats

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
	CREATE TABLE IF NOT EXISTS player_standings (
		player_id      TEXT        NOT NULL,
		game_type      TEXT        NOT NULL,
		display_name   TEXT        NOT NULL DEFAULT '',
		games          INTEGER     NOT NULL DEFAULT 0,
		wins           INTEGER     NOT NULL DEFAULT 0,
		losses         INTEGER     NOT NULL DEFAULT 0,
		draws          INTEGER     NOT NULL DEFAULT 0,
		last_played_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (player_id, game_type)
	)`

type repository struct {
	db *sql.DB
}

// Open connects to PostgreSQL, applies pool settings and creates the standings table.
func Open(databaseURL string) (Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create player_standings: %w", err)
	}
	return NewRepository(db), nil
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// RecordMatch upserts one row per seated player in a single transaction.
func (r *repository) RecordMatch(ctx context.Context, res MatchResult) error {
	if err := res.validate(); err != nil {
		return err
	}
	const query = `
		INSERT INTO player_standings (
			player_id, game_type, display_name, games, wins, losses, draws, last_played_at
		) VALUES ($1, $2, $3, 1, $4, $5, $6, $7)
		ON CONFLICT (player_id, game_type) DO UPDATE SET
			display_name=EXCLUDED.display_name,
			games=player_standings.games + 1,
			wins=player_standings.wins + EXCLUDED.wins,
			losses=player_standings.losses + EXCLUDED.losses,
			draws=player_standings.draws + EXCLUDED.draws,
			last_played_at=GREATEST(player_standings.last_played_at, EXCLUDED.last_played_at)`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin standings tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range res.Players {
		w, l, d := res.outcome(p.ID)
		if _, err := tx.ExecContext(ctx, query,
			p.ID, string(res.GameType), p.Name, w, l, d, res.EndedAt,
		); err != nil {
			return fmt.Errorf("upsert standing %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit standings: %w", err)
	}
	return nil
}

func (r *repository) Standings(ctx context.Context, playerID string) ([]*Standing, error) {
	const query = `
		SELECT player_id, game_type, display_name, games, wins, losses, draws, last_played_at
		FROM player_standings
		WHERE player_id = $1
		ORDER BY game_type`

	rows, err := r.db.QueryContext(ctx, query, strings.TrimSpace(playerID))
	if err != nil {
		return nil, fmt.Errorf("select standings: %w", err)
	}
	defer rows.Close()

	out := []*Standing{}
	for rows.Next() {
		var (
			s        Standing
			gameType string
		)
		if err := rows.Scan(&s.PlayerID, &gameType, &s.Name, &s.Games, &s.Wins, &s.Losses, &s.Draws, &s.LastPlayed); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		s.GameType = domainGameType(gameType)
		out = append(out, &s)
	}
	return out, rows.Err()
}
