package service

import (
	"context"

	"ad-monitor/config"
	"ad-monitor/domain"
)

//go:generate mockgen -source=ports.go -destination=../test/mocks/service_mocks.go -package=mocks

// PageFetcher opens browser sessions. A session is owned by exactly one worker.
type PageFetcher interface {
	Open(ctx context.Context) (FetchSession, error)
}

// FetchSession renders search pages. Fetch reports domain.ErrSoftBlocked when
// the page redirected to a login or checkpoint wall.
type FetchSession interface {
	Fetch(ctx context.Context, url string) (string, error)
	Close() error
}

// ContentExtractor turns a rendered page into candidate listings.
type ContentExtractor interface {
	Extract(html, currency string) ([]domain.Candidate, error)
}

// ListingNotifier is told about every newly discovered listing.
type ListingNotifier interface {
	Notify(ctx context.Context, listing domain.Listing) error
}

// ConfigSource yields the current configuration snapshot.
type ConfigSource interface {
	Get() *config.Config
}
