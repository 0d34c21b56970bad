// Package postgres implements the scan record sink on Postgres using pgx v5.
// Each load runs in one transaction: delete the report's date window, then
// COPY the replacement records in. A failed COPY rolls back the delete, so
// the table never ends up with a half-loaded window.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"scantransfer/pkg/records"
)

// Config holds the sink configuration.
type Config struct {
	// DSN is the connection string for pgxpool.
	DSN string

	// Table is the fully qualified target, e.g. "public.scan_report".
	Table string

	// Columns are the destination columns in COPY order. Records may carry
	// extra keys; only these columns are loaded.
	Columns []string

	// DateColumn is the column the delete window ranges over, e.g. "scan_date".
	DateColumn string
}

// Repository is a Postgres-backed scan record sink.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository connects a pool and returns the repository plus a close
// function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if len(cfg.Columns) == 0 {
		return nil, nil, fmt.Errorf("postgres: no columns configured")
	}
	if cfg.DateColumn == "" {
		return nil, nil, fmt.Errorf("postgres: date column is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, pool.Close, nil
}

// Load implements storage.Repository.
func (r *Repository) Load(ctx context.Context, startDate, endDate string, recs []records.Record) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	del := fmt.Sprintf(
		"DELETE FROM %s WHERE %s BETWEEN $1 AND $2",
		pgFQN(r.cfg.Table), pgIdent(r.cfg.DateColumn),
	)
	if _, err := tx.Exec(ctx, del, startDate, endDate); err != nil {
		return 0, fmt.Errorf("delete window %s..%s: %w", startDate, endDate, err)
	}

	rows := make([][]any, len(recs))
	for i, rec := range recs {
		row := make([]any, len(r.cfg.Columns))
		for j, c := range r.cfg.Columns {
			row[j] = rec[c]
		}
		rows[i] = row
	}

	n, err := tx.CopyFrom(ctx, splitFQN(r.cfg.Table), r.cfg.Columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return 0, fmt.Errorf("copy into %s: %s (%s)", r.cfg.Table, pgErr.Detail, pgErr.SQLState())
		}
		return 0, fmt.Errorf("copy into %s: %w", r.cfg.Table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// pgIdent quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.scan_report" to
// "public"."scan_report".
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
