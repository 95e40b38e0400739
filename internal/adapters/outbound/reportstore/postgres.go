// Package reportstore keeps migration reports in Postgres.
package reportstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adshift/adshift/internal/domain"
	"github.com/lib/pq"
)

// DefaultTable is used when no table name is configured.
const DefaultTable = "migration_reports"

// PostgresStore implements domain.ReportStore. Filterable columns are kept
// next to the full report document.
type PostgresStore struct {
	db    *sql.DB
	table string
}

// Open connects to Postgres and ensures the report table exists.
func Open(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	store, err := NewWithDB(ctx, db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewWithDB reuses an existing *sql.DB.
func NewWithDB(ctx context.Context, db *sql.DB, table string) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if table == "" {
		table = DefaultTable
	}
	s := &PostgresStore{db: db, table: pq.QuoteIdentifier(table)}
	if err := s.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("creating %s: %w", table, err)
	}
	return s, nil
}

func (s *PostgresStore) ensureTable(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
  id text PRIMARY KEY,
  source_platform text NOT NULL,
  target_platform text NOT NULL,
  source_campaign_id text NOT NULL,
  outcome text NOT NULL,
  target_id text,
  started_at timestamptz NOT NULL,
  finished_at timestamptz NOT NULL,
  report jsonb NOT NULL
)`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *PostgresStore) Save(ctx context.Context, r *domain.MigrationReport) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	var targetID any
	if r.TargetID != nil {
		targetID = *r.TargetID
	}

	query := `INSERT INTO ` + s.table + ` (id, source_platform, target_platform, source_campaign_id, outcome, target_id, started_at, finished_at, report) ` +
		`VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) ` +
		`ON CONFLICT (id) DO UPDATE SET outcome = EXCLUDED.outcome, target_id = EXCLUDED.target_id, finished_at = EXCLUDED.finished_at, report = EXCLUDED.report`
	_, err = s.db.ExecContext(ctx, query,
		r.ID,
		r.SourcePlatform,
		r.TargetPlatform,
		r.SourceCampaignID,
		string(r.Outcome),
		targetID,
		r.StartedAt,
		r.FinishedAt,
		doc,
	)
	return err
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]*domain.MigrationReport, error) {
	query := `SELECT report FROM ` + s.table + ` ORDER BY started_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.MigrationReport
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var r domain.MigrationReport
		if err := json.Unmarshal(doc, &r); err != nil {
			return nil, fmt.Errorf("decoding report: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error { return s.db.Close() }
