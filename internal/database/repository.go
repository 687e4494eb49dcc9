package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-easyapply-automation/internal/queue"
	"go-easyapply-automation/internal/scraper"
)

// Repository is the optional long-term archive. The JSON snapshots under
// .data are the source of truth for queue state; Postgres only keeps the
// full listing text and application outcomes beyond the 100-entry ledger.
type Repository struct {
	db *pgxpool.Pool
}

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// IMPORTANT: Supabase connection pooler (PgBouncer in Transaction mode)
	// does not support prepared statements easily. We MUST disable the statement cache.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Ping to ensure connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &Repository{db: pool}, nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// SaveListing inserts a scraped listing or refreshes an existing one
// (keyed by source + external id).
func (r *Repository) SaveListing(ctx context.Context, l *scraper.Listing) error {
	query := `
		INSERT INTO listings (source, external_id, title, company, location, salary, url, description, match_score, extracted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (source, external_id)
		DO UPDATE SET title = EXCLUDED.title, company = EXCLUDED.company, description = EXCLUDED.description, match_score = EXCLUDED.match_score`

	_, err := r.db.Exec(ctx, query,
		l.Source, l.ID, l.Title, l.Company, l.Location, l.Salary, l.URL, l.Description, l.MatchScore, l.ExtractedAt)
	if err != nil {
		return fmt.Errorf("failed to save listing: %w", err)
	}
	return nil
}

// RecordApplication archives one attempt outcome.
func (r *Repository) RecordApplication(ctx context.Context, entry queue.HistoryEntry) error {
	query := `
		INSERT INTO applications (id, job_external_id, job_title, outcome, error, duration_ms, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.JobID, entry.JobTitle, entry.Outcome, entry.Error, entry.DurationMs, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record application: %w", err)
	}
	return nil
}

// CountApplicationsSince reports archived attempts newer than the cutoff.
func (r *Repository) CountApplicationsSince(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM applications WHERE applied_at > $1", cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return count, nil
}
