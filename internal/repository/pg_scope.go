package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// StorageSchema crea la tabla usada por PgScope.
const StorageSchema = `
	CREATE TABLE IF NOT EXISTS widget_storage (
		namespace  TEXT NOT NULL,
		key        TEXT NOT NULL,
		value      TEXT NOT NULL,
		expires_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (namespace, key)
	)
`

type pgExecQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgScope guarda claves de un namespace en Postgres.
type PgScope struct {
	db        pgExecQuerier
	namespace string
	ttl       time.Duration
	now       func() time.Time
}

func NewPgScope(db pgExecQuerier, namespace string, ttl time.Duration) *PgScope {
	return &PgScope{
		db:        db,
		namespace: namespace,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EnsureSchema crea la tabla si no existe.
func (s *PgScope) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, StorageSchema)
	return err
}

func (s *PgScope) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `
		SELECT value
		FROM widget_storage
		WHERE namespace = $1 AND key = $2 AND (expires_at IS NULL OR expires_at > $3)
	`
	var value string
	err := s.db.QueryRow(ctx, query, s.namespace, key, s.now()).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("pg get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PgScope) Set(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO widget_storage (namespace, key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at
	`
	now := s.now()
	var expiresAt *time.Time
	if s.ttl > 0 {
		exp := now.Add(s.ttl)
		expiresAt = &exp
	}
	if _, err := s.db.Exec(ctx, query, s.namespace, key, value, expiresAt, now); err != nil {
		if isQuotaError(err) {
			return fmt.Errorf("pg set %s: %w", key, ErrQuotaExceeded)
		}
		return fmt.Errorf("pg set %s: %w", key, err)
	}
	return nil
}

func (s *PgScope) Delete(ctx context.Context, key string) error {
	const query = `
		DELETE FROM widget_storage
		WHERE namespace = $1 AND key = $2
	`
	if _, err := s.db.Exec(ctx, query, s.namespace, key); err != nil {
		return fmt.Errorf("pg delete %s: %w", key, err)
	}
	return nil
}

func isQuotaError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// disk_full / program_limit_exceeded
	return pgErr.Code == "53100" || pgErr.Code == "54000"
}
