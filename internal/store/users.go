package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"v2v-radar/service/internal/config"
)

// UserStore is the auth collaborator's credential database. The core only
// ever asks whether a token subject exists; registration and login live in
// a separate service that shares this schema.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(ctx context.Context, cfg *config.Config) (*UserStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?pool_max_conns=%d",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBMaxConns,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &UserStore{pool: pool}, nil
}

func (s *UserStore) Close() {
	s.pool.Close()
}

func (s *UserStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// SubjectExists reports whether a bearer-token subject maps to a known user.
func (s *UserStore) SubjectExists(ctx context.Context, subject string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, `SELECT 1 FROM users WHERE username = $1`, subject).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("user lookup failed: %w", err)
	}
	return true, nil
}
