package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ranktracker/internal/domain"
)

// PostgresStore persists keyword run status and resolved rank rows.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// SaveRunStatus upserts the processing state of one keyword run.
func (s *PostgresStore) SaveRunStatus(ctx context.Context, keyword, status, failReason string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO keyword_runs (keyword, status, fail_reason)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (keyword) DO UPDATE SET
		   status = EXCLUDED.status, fail_reason = EXCLUDED.fail_reason, updated_at = NOW()`,
		keyword, status, failReason,
	)
	return err
}

// SaveRows stores one run's resolved rows in a single transaction. Zero
// positional values persist as NULL so not-found rows stay empty.
func (s *PostgresStore) SaveRows(ctx context.Context, rows []domain.ResultRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(
			`INSERT INTO rank_results
			   (recorded_at, keyword, asin, placement, found, page, page_position, rank, organic_rank)
			 VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, 0), NULLIF($7, 0), NULLIF($8, 0), NULLIF($9, 0))`,
			r.Timestamp, r.Keyword, r.ASIN, r.Placement, r.Found,
			r.Page, r.PagePos, r.Rank, r.OrganicRank,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetRunStatus retrieves the current status of a keyword run.
func (s *PostgresStore) GetRunStatus(ctx context.Context, keyword string) (*domain.RunStatusResponse, error) {
	var status domain.RunStatusResponse
	var failReason *string
	err := s.db.QueryRow(ctx,
		`SELECT keyword, status, fail_reason, updated_at FROM keyword_runs WHERE keyword = $1`,
		keyword,
	).Scan(&status.Keyword, &status.Status, &failReason, &status.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("not_found")
	}
	if failReason != nil {
		status.FailReason = *failReason
	}
	return &status, err
}

// GetResults returns the most recent resolved rows for a keyword, newest
// run first.
func (s *PostgresStore) GetResults(ctx context.Context, keyword string, limit int) ([]domain.ResultRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx,
		`SELECT recorded_at, keyword, asin, COALESCE(placement, ''), found,
		        COALESCE(page, 0), COALESCE(page_position, 0), COALESCE(rank, 0), COALESCE(organic_rank, 0)
		 FROM rank_results WHERE keyword = $1
		 ORDER BY recorded_at DESC, asin ASC
		 LIMIT $2`,
		keyword, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ResultRow
	for rows.Next() {
		var r domain.ResultRow
		if err := rows.Scan(&r.Timestamp, &r.Keyword, &r.ASIN, &r.Placement, &r.Found,
			&r.Page, &r.PagePos, &r.Rank, &r.OrganicRank); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
