// ABOUTME: The editable monitor configuration document (config.json)
// ABOUTME: Holds server identity, schedule, retention and the per-URL filter tree
package config

import (
	"maps"
	"slices"
	"time"

	"ad-monitor/domain"
)

const (
	DefaultRetentionDays    = 14
	DefaultRecentWindowDays = 7
)

// Config is the document edited through /api/config and stored on disk.
type Config struct {
	ServerIP               string              `json:"server_ip" mapstructure:"server_ip" validate:"required"`
	ServerPort             int                 `json:"server_port" mapstructure:"server_port" validate:"min=1,max=65535"`
	Currency               string              `json:"currency" mapstructure:"currency" validate:"required"`
	RefreshIntervalMinutes int                 `json:"refresh_interval_minutes" mapstructure:"refresh_interval_minutes" validate:"min=1"`
	LogFilename            string              `json:"log_filename" mapstructure:"log_filename"`
	DatabaseName           string              `json:"database_name" mapstructure:"database_name" validate:"required"`
	RetentionDays          int                 `json:"retention_days" mapstructure:"retention_days" validate:"min=1"`
	RecentWindowDays       int                 `json:"recent_window_days" mapstructure:"recent_window_days" validate:"min=1"`
	URLFilters             domain.FilterConfig `json:"url_filters" mapstructure:"-"`
}

// Default returns a document with every optional field populated.
func Default() *Config {
	return &Config{
		ServerIP:               "0.0.0.0",
		ServerPort:             5000,
		Currency:               "$",
		RefreshIntervalMinutes: 15,
		LogFilename:            "",
		DatabaseName:           "ads.db",
		RetentionDays:          DefaultRetentionDays,
		RecentWindowDays:       DefaultRecentWindowDays,
		URLFilters:             domain.FilterConfig{},
	}
}

// Clone returns a deep copy so callers can hold a snapshot without a lock.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	out := *c
	out.URLFilters = make(domain.FilterConfig, len(c.URLFilters))
	for u, levels := range c.URLFilters {
		if levels == nil {
			out.URLFilters[u] = nil
			continue
		}
		copied := make(domain.URLFilters, len(levels))
		for name, keywords := range levels {
			copied[name] = slices.Clone(keywords)
		}
		out.URLFilters[u] = copied
	}
	return &out
}

// RefreshInterval is the pause between discovery cycles.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalMinutes) * time.Minute
}

// Retention is the age after which listings are pruned.
func (c *Config) Retention() time.Duration {
	return days(c.RetentionDays, DefaultRetentionDays)
}

// RecentWindow is the age limit of listings published in the feed.
func (c *Config) RecentWindow() time.Duration {
	return days(c.RecentWindowDays, DefaultRecentWindowDays)
}

// URLs returns the monitored URLs in a stable order.
func (c *Config) URLs() []string {
	return c.URLFilters.URLs()
}

// FiltersFor returns the filter levels configured for url, or nil.
func (c *Config) FiltersFor(url string) domain.URLFilters {
	return c.URLFilters[url]
}

// Equal reports whether two documents carry the same values.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.ServerIP != other.ServerIP ||
		c.ServerPort != other.ServerPort ||
		c.Currency != other.Currency ||
		c.RefreshIntervalMinutes != other.RefreshIntervalMinutes ||
		c.LogFilename != other.LogFilename ||
		c.DatabaseName != other.DatabaseName ||
		c.RetentionDays != other.RetentionDays ||
		c.RecentWindowDays != other.RecentWindowDays {
		return false
	}
	return maps.EqualFunc(c.URLFilters, other.URLFilters, func(x, y domain.URLFilters) bool {
		return maps.EqualFunc(x, y, slices.Equal[[]string])
	})
}

func days(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * 24 * time.Hour
}
