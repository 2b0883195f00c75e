package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const sessionsDDL = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id    TEXT PRIMARY KEY,
	last_entities JSONB NOT NULL DEFAULT '{}'::jsonb,
	turn_count    INT   NOT NULL DEFAULT 0,
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PGStore persists session contexts in Postgres so they survive restarts and
// are shared across replicas. Same-session serialization comes from row-level
// locking: Update holds SELECT ... FOR UPDATE on the session row for the
// duration of the turn.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(ctx context.Context, dsn string) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, sessionsDDL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create sessions table: %w", err)
	}
	log.Info().Msg("postgres session store ready")
	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Update(ctx context.Context, sessionID string, fn func(Context) (Context, error)) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO sessions (session_id) VALUES ($1) ON CONFLICT (session_id) DO NOTHING`,
		sessionID); err != nil {
		return fmt.Errorf("ensure session row: %w", err)
	}

	var (
		entitiesJSON []byte
		turnCount    int
	)
	err = tx.QueryRow(ctx,
		`SELECT last_entities, turn_count FROM sessions WHERE session_id = $1 FOR UPDATE`,
		sessionID).Scan(&entitiesJSON, &turnCount)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	conv := NewContext(sessionID)
	conv.TurnCount = turnCount
	if err := json.Unmarshal(entitiesJSON, &conv.LastEntities); err != nil {
		return fmt.Errorf("decode session entities: %w", err)
	}

	updated, err := fn(conv)
	if err != nil {
		return err
	}

	updatedJSON, err := json.Marshal(updated.LastEntities)
	if err != nil {
		return fmt.Errorf("encode session entities: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE sessions SET last_entities = $2, turn_count = $3, updated_at = now() WHERE session_id = $1`,
		sessionID, updatedJSON, updated.TurnCount); err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PGStore) Close() {
	s.pool.Close()
}
