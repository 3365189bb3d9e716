// ABOUTME: Renders recently checked listings as an RSS 2.0 document
// ABOUTME: Rendered output is cached briefly and invalidated after every cycle
package service

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"ad-monitor/config"
	"ad-monitor/domain"
	"ad-monitor/repository"
)

const (
	FeedTitle       = "Facebook Marketplace Ad Feed"
	FeedDescription = "An RSS feed to monitor new ads on Facebook Marketplace"
	FeedContentType = "application/rss+xml"
)

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// Channel identifies the server a feed is published from.
type Channel struct {
	Host string
	Port int
}

// Link is the self-referential feed URL.
func (c Channel) Link() string {
	return "http://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) + "/rss"
}

// RenderRSS turns listings into an RSS 2.0 document, preserving their order.
func RenderRSS(listings []domain.Listing, ch Channel, buildTime time.Time) ([]byte, error) {
	doc := rssDocument{
		Version: "2.0",
		Channel: rssChannel{
			Title:         FeedTitle,
			Link:          ch.Link(),
			Description:   FeedDescription,
			LastBuildDate: buildTime.UTC().Format(time.RFC1123Z),
			Items:         make([]rssItem, 0, len(listings)),
		},
	}
	for _, l := range listings {
		doc.Channel.Items = append(doc.Channel.Items, rssItem{
			Title:       l.Title + " - " + l.Price,
			Link:        l.URL,
			Description: "Price: " + l.Price + " | Title: " + l.Title,
			GUID:        rssGUID{IsPermaLink: false, Value: l.AdID},
			PubDate:     l.LastChecked.UTC().Format(time.RFC1123Z),
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFeedRender, err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

type FeedPublisher struct {
	repo   repository.ListingRepository
	config ConfigSource
	cache  *expirable.LRU[string, []byte]
	now    func() time.Time
	logger *slog.Logger
}

func NewFeedPublisher(repo repository.ListingRepository, cfg ConfigSource, settings config.FeedSettings, logger *slog.Logger) *FeedPublisher {
	size := settings.CacheSize
	if size <= 0 {
		size = 1
	}
	return &FeedPublisher{
		repo:   repo,
		config: cfg,
		cache:  expirable.NewLRU[string, []byte](size, nil, settings.CacheTTL),
		now:    time.Now,
		logger: logger,
	}
}

// Render returns the feed for the configured recent window. It never writes to the store.
func (p *FeedPublisher) Render(ctx context.Context) ([]byte, error) {
	cfg := p.config.Get()
	ch := Channel{Host: cfg.ServerIP, Port: cfg.ServerPort}
	window := cfg.RecentWindow()
	key := ch.Link() + "|" + window.String()

	if body, ok := p.cache.Get(key); ok {
		p.logger.DebugContext(ctx, "serving cached feed")
		return body, nil
	}

	listings, err := p.repo.QueryRecent(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFeedRender, err)
	}

	body, err := RenderRSS(listings, ch, p.now())
	if err != nil {
		return nil, err
	}
	p.cache.Add(key, body)
	p.logger.DebugContext(ctx, "rendered feed", "items", len(listings), "window", window)
	return body, nil
}

// Invalidate drops every cached rendering.
func (p *FeedPublisher) Invalidate() {
	p.cache.Purge()
}
