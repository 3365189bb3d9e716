package handler

import (
	"context"

	"ad-monitor/config"
)

//go:generate mockgen -source=interfaces.go -destination=../test/mocks/handler_mocks.go -package=mocks

// FeedRenderer produces the RSS document served at /rss.
type FeedRenderer interface {
	Render(ctx context.Context) ([]byte, error)
}

// ConfigStore reads and replaces the live configuration document.
type ConfigStore interface {
	Get() *config.Config
	Update(cfg *config.Config) error
}

// StorePinger reports whether the dedup store is reachable.
type StorePinger interface {
	Ping(ctx context.Context) error
}
