// ABOUTME: Extracts marketplace listing candidates from a rendered search page
// ABOUTME: Uses goquery selectors and bluemonday to reduce title and price markup to text
package html_parser

import (
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"ad-monitor/domain"
)

const (
	// ListingBaseURL is prefixed to relative marketplace item links.
	ListingBaseURL = "https://facebook.com"

	listingLinkSelector  = "a[href^='/marketplace/item/']"
	listingTitleSelector = "span[style*='-webkit-line-clamp']"
	listingPriceSelector = "span[dir='auto']"
)

// ListingExtractor finds ad cards on a marketplace search page.
type ListingExtractor struct {
	policy *bluemonday.Policy
}

func NewListingExtractor() *ListingExtractor {
	return &ListingExtractor{policy: bluemonday.StrictPolicy()}
}

// Extract returns one candidate per distinct listing link. A card is kept when
// its price starts with currency or mentions "free".
func (e *ListingExtractor) Extract(raw, currency string) ([]domain.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	seen := make(map[string]struct{})
	var candidates []domain.Candidate

	doc.Find(listingLinkSelector).Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Attr("href")
		if !ok {
			return
		}
		link := CanonicalListingURL(href)
		if _, dup := seen[link]; dup {
			return
		}

		title := e.text(card.Find(listingTitleSelector).First())
		price := e.text(card.Find(listingPriceSelector).First())
		if title == "" || price == "" {
			return
		}
		if !PriceAccepted(price, currency) {
			return
		}

		seen[link] = struct{}{}
		candidates = append(candidates, domain.Candidate{
			IdentityHint: domain.ListingID(link),
			Title:        title,
			Price:        price,
			URL:          link,
		})
	})

	return candidates, nil
}

func (e *ListingExtractor) text(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	inner, err := sel.Html()
	if err != nil {
		return normalizeWhitespace(sel.Text())
	}
	return normalizeWhitespace(html.UnescapeString(e.policy.Sanitize(inner)))
}

// CanonicalListingURL makes an absolute listing URL without its query string.
func CanonicalListingURL(href string) string {
	if i := strings.IndexByte(href, '?'); i >= 0 {
		href = href[:i]
	}
	return ListingBaseURL + href
}

// PriceAccepted reports whether a price string is in the configured currency or free.
func PriceAccepted(price, currency string) bool {
	if currency != "" && strings.HasPrefix(price, currency) {
		return true
	}
	return strings.Contains(strings.ToLower(price), "free")
}

// StripTags removes HTML tags from a string and returns plain text.
func StripTags(raw string) string {
	return normalizeWhitespace(html.UnescapeString(bluemonday.StrictPolicy().Sanitize(raw)))
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
