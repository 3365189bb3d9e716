// ABOUTME: Listing and candidate entities produced by the ad discovery pipeline
// ABOUTME: Listing identity is the md5 hex digest of the canonical listing URL
package domain

import (
	"crypto/md5"
	"encoding/hex"
	"slices"
	"time"
)

// Listing is a discovered ad as stored by the dedup store.
type Listing struct {
	FirstSeen   time.Time `json:"first_seen" db:"first_seen"`
	LastChecked time.Time `json:"last_checked" db:"last_checked"`
	AdID        string    `json:"ad_id" db:"ad_id"`
	Title       string    `json:"title" db:"title"`
	Price       string    `json:"price" db:"price"`
	URL         string    `json:"url" db:"url"`
}

// Candidate is a raw ad extracted from a fetched page, before filtering.
type Candidate struct {
	IdentityHint string
	Title        string
	Price        string
	URL          string
}

// ToListing converts the candidate into a listing keyed by its canonical URL.
// Timestamps are left zero; the store assigns them.
func (c Candidate) ToListing() Listing {
	id := c.IdentityHint
	if id == "" {
		id = ListingID(c.URL)
	}
	return Listing{
		AdID:  id,
		Title: c.Title,
		Price: c.Price,
		URL:   c.URL,
	}
}

// ListingID derives the stable identity of a listing from its canonical URL.
func ListingID(canonicalURL string) string {
	sum := md5.Sum([]byte(canonicalURL))
	return hex.EncodeToString(sum[:])
}

// URLFilters maps a level name (level1, level2, ...) to its keywords.
type URLFilters map[string][]string

// FilterConfig maps a monitored search URL to its filter levels.
type FilterConfig map[string]URLFilters

// URLs returns the monitored URLs in a deterministic order.
func (f FilterConfig) URLs() []string {
	urls := make([]string, 0, len(f))
	for u := range f {
		urls = append(urls, u)
	}
	slices.Sort(urls)
	return urls
}
