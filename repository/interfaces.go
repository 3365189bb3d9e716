package repository

import (
	"context"
	"fmt"
	"time"

	"ad-monitor/domain"
)

//go:generate mockgen -source=interfaces.go -destination=../test/mocks/repository_mocks.go -package=mocks

// ListingRepository is the dedup store shared by all fetch workers.
type ListingRepository interface {
	// Upsert inserts the listing or refreshes title, price and last_checked.
	// It reports whether the listing was new. first_seen is never modified.
	// A non-zero listing.LastChecked is used as the check time.
	Upsert(ctx context.Context, listing domain.Listing) (bool, error)
	// Prune deletes listings whose last_checked is older than now-olderThan.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
	// QueryRecent returns listings checked within window, most recent first.
	QueryRecent(ctx context.Context, window time.Duration) ([]domain.Listing, error)
	Ping(ctx context.Context) error
	Close() error
}

// Clock returns the current time. Repositories store it in UTC.
type Clock func() time.Time

const tableName = "ad_changes"

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}

func checkedAt(l domain.Listing, now Clock) time.Time {
	if !l.LastChecked.IsZero() {
		return l.LastChecked.UTC()
	}
	return now().UTC()
}

func validateListing(l domain.Listing) error {
	if l.AdID == "" || l.URL == "" {
		return domain.ErrInvalidListing
	}
	return nil
}
