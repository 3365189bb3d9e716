// ABOUTME: Dedup store on PostgreSQL through a pgx pool
// ABOUTME: Upsert is a single INSERT ... ON CONFLICT statement, atomic per ad_id
package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"ad-monitor/domain"
)

// PgxPool is the subset of *pgxpool.Pool used by the repository.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

const (
	createListingsTableSQL = `CREATE TABLE IF NOT EXISTS ad_changes (
	ad_id        TEXT PRIMARY KEY,
	url          TEXT NOT NULL,
	title        TEXT NOT NULL,
	price        TEXT NOT NULL,
	first_seen   TIMESTAMPTZ NOT NULL,
	last_checked TIMESTAMPTZ NOT NULL
)`
	createLastCheckedIndexSQL = `CREATE INDEX IF NOT EXISTS idx_ad_changes_last_checked ON ad_changes (last_checked DESC)`

	upsertListingSQL = `INSERT INTO ad_changes (ad_id, url, title, price, first_seen, last_checked)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (ad_id) DO UPDATE SET
	title = EXCLUDED.title,
	price = EXCLUDED.price,
	last_checked = GREATEST(ad_changes.first_seen, EXCLUDED.last_checked)
RETURNING (xmax = 0) AS inserted`

	pruneListingsSQL = `DELETE FROM ad_changes WHERE last_checked < $1`

	recentListingsSQL = `SELECT ad_id, title, price, url, first_seen, last_checked
FROM ad_changes
WHERE last_checked >= $1
ORDER BY last_checked DESC`
)

type PostgresListingRepository struct {
	pool   PgxPool
	logger *slog.Logger
	now    Clock
}

func NewPostgresListingRepository(pool PgxPool, logger *slog.Logger, now Clock) *PostgresListingRepository {
	if now == nil {
		now = time.Now
	}
	return &PostgresListingRepository{pool: pool, logger: logger, now: now}
}

// EnsureSchema creates the ad_changes table and its index if missing.
func (r *PostgresListingRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createListingsTableSQL, createLastCheckedIndexSQL} {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return storageError("ensure schema", err)
		}
	}
	return nil
}

func (r *PostgresListingRepository) Upsert(ctx context.Context, listing domain.Listing) (bool, error) {
	if err := validateListing(listing); err != nil {
		return false, err
	}
	now := checkedAt(listing, r.now)

	var inserted bool
	err := r.pool.QueryRow(ctx, upsertListingSQL,
		listing.AdID, listing.URL, listing.Title, listing.Price, now,
	).Scan(&inserted)
	if err != nil {
		return false, storageError("upsert listing "+listing.AdID, err)
	}

	r.logger.DebugContext(ctx, "upserted listing", "ad_id", listing.AdID, "is_new", inserted)
	return inserted, nil
}

func (r *PostgresListingRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := r.now().UTC().Add(-olderThan)
	tag, err := r.pool.Exec(ctx, pruneListingsSQL, cutoff)
	if err != nil {
		return 0, storageError("prune listings", err)
	}
	r.logger.InfoContext(ctx, "pruned listings", "removed", tag.RowsAffected(), "cutoff", cutoff)
	return tag.RowsAffected(), nil
}

func (r *PostgresListingRepository) QueryRecent(ctx context.Context, window time.Duration) ([]domain.Listing, error) {
	cutoff := r.now().UTC().Add(-window)
	r.logger.DebugContext(ctx, "getting recent listings", "cutoff", cutoff)

	rows, err := r.pool.Query(ctx, recentListingsSQL, cutoff)
	if err != nil {
		return nil, storageError("query recent listings", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(&l.AdID, &l.Title, &l.Price, &l.URL, &l.FirstSeen, &l.LastChecked); err != nil {
			return nil, storageError("scan listing", err)
		}
		l.FirstSeen = l.FirstSeen.UTC()
		l.LastChecked = l.LastChecked.UTC()
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("iterate listings", err)
	}

	r.logger.DebugContext(ctx, "got recent listings", "count", len(listings))
	return listings, nil
}

func (r *PostgresListingRepository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return storageError("ping postgres", err)
	}
	return nil
}

func (r *PostgresListingRepository) Close() error {
	r.pool.Close()
	return nil
}
