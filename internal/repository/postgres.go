package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id         BIGSERIAL PRIMARY KEY,
	game_json  JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS game_log (
	game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	n       INTEGER NOT NULL,
	message TEXT NOT NULL,
	PRIMARY KEY (game_id, n)
);

CREATE TABLE IF NOT EXISTS game_actions (
	game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
	n       INTEGER NOT NULL,
	action  TEXT NOT NULL,
	PRIMARY KEY (game_id, n)
);
`

// PostgresStore keeps games in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects to dsn and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	stats := pool.Stat()
	logger.Info("database connection pool initialized",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
	)
	return &PostgresStore{pool: pool, logger: logger}, nil
}

// EnsureSchema creates the tables if they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) NextGameID(ctx context.Context) (int64, error) {
	var id int64
	if err := s.pool.QueryRow(ctx, `INSERT INTO games DEFAULT VALUES RETURNING id`).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to allocate game id: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Save(ctx context.Context, id int64, data []byte) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE games SET game_json = $2, updated_at = now() WHERE id = $1`, id, data)
	if err != nil {
		return fmt.Errorf("failed to save game %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to save game %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, id int64) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT game_json FROM games WHERE id = $1 AND game_json IS NOT NULL`, id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %d: %w", id, err)
	}
	return data, nil
}

func (s *PostgresStore) Recent(ctx context.Context, n int) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM games ORDER BY id DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) AppendLog(ctx context.Context, id int64, lines []string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM game_log WHERE game_id = $1`, id).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count log for game %d: %w", id, err)
	}
	batch := &pgx.Batch{}
	for i, line := range lines {
		batch.Queue(`INSERT INTO game_log (game_id, n, message) VALUES ($1, $2, $3)`, id, total+i, line)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return 0, fmt.Errorf("failed to append log for game %d: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit log for game %d: %w", id, err)
	}
	return total + len(lines), nil
}

func (s *PostgresStore) LogLines(ctx context.Context, id int64, n, start int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}
	if start < 0 {
		start = 0
	}
	rows, err := s.pool.Query(ctx,
		`SELECT message FROM game_log WHERE game_id = $1 AND n >= $2 ORDER BY n LIMIT $3`, id, start, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read log for game %d: %w", id, err)
	}
	lines, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read log for game %d: %w", id, err)
	}
	return lines, nil
}

func (s *PostgresStore) LogLength(ctx context.Context, id int64) (int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM game_log WHERE game_id = $1`, id).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count log for game %d: %w", id, err)
	}
	return total, nil
}

func (s *PostgresStore) AppendActions(ctx context.Context, id int64, first int, encoded [][]byte) error {
	batch := &pgx.Batch{}
	for i, a := range encoded {
		batch.Queue(`INSERT INTO game_actions (game_id, n, action) VALUES ($1, $2, $3)
			ON CONFLICT (game_id, n) DO UPDATE SET action = EXCLUDED.action`, id, first+i, string(a))
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to store actions for game %d: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
