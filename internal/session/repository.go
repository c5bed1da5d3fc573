package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-board/internal/domain"

	_ "github.com/lib/pq"
)

const schemaBoardGames = `CREATE TABLE IF NOT EXISTS board_games (
    game_id     TEXT PRIMARY KEY,
    winner      TEXT NOT NULL,
    method      TEXT NOT NULL,
    moves_uci   JSONB NOT NULL,
    final_fen   TEXT NOT NULL,
    plies       INTEGER NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    ended_at    TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT NOT NULL
)`

// Repository archives finished games in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
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
	return &Repository{db: db}, nil
}

// NewRepositoryWithDB wraps an already opened database handle.
func NewRepositoryWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the board_games table if it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	if r == nil || r.db == nil {
		return nil
	}
	_, err := r.db.ExecContext(ctx, schemaBoardGames)
	return err
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts a finished game.
func (r *Repository) SaveResult(ctx context.Context, g *domain.FinishedGame) error {
	if r == nil || r.db == nil || g == nil {
		return nil
	}
	movesRaw, err := json.Marshal(g.MovesUCI)
	if err != nil {
		return err
	}

	q := `INSERT INTO board_games (
        game_id, winner, method, moves_uci, final_fen, plies,
        started_at, ended_at, duration_ms
      ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
      ) ON CONFLICT (game_id) DO UPDATE SET
        winner=EXCLUDED.winner,
        method=EXCLUDED.method,
        moves_uci=EXCLUDED.moves_uci,
        final_fen=EXCLUDED.final_fen,
        plies=EXCLUDED.plies,
        started_at=EXCLUDED.started_at,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

	_, err = r.db.ExecContext(ctx, q,
		g.GameID,
		strings.TrimSpace(g.Winner), strings.TrimSpace(g.Method),
		string(movesRaw), g.FEN, g.Plies,
		g.StartedAt, g.EndedAt, g.Duration.Milliseconds(),
	)
	return err
}
