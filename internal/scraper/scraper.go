// Package scraper extracts rental listings from configured search pages
// and, for new listings, the field details from their detail pages.
package scraper

import (
	stderrors "errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ervin-khamoido/saga-telegram-bot/helpers"
	"github.com/ervin-khamoido/saga-telegram-bot/pkg/errors"
	"github.com/ervin-khamoido/saga-telegram-bot/services/cache"
)

const defaultBlockTime = 300 * time.Second

// Scraper implements ListingSource for one configured search page
type Scraper struct {
	source    Source
	cacheKey  string
	cacheSvc  cache.CacheService
	blockTime time.Duration
	idRe      *regexp.Regexp

	// fetch is swapped out in tests
	fetch func(url string) (io.Reader, error)
}

var _ ListingSource = (*Scraper)(nil)

// New creates a scraper for the given source. The cache service backs the
// block-guard that pauses fetching after the site rate-limits us.
func New(source Source, cacheSvc cache.CacheService) (*Scraper, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}

	s := &Scraper{
		source:    source,
		cacheKey:  "rate_limited_" + source.Name,
		cacheSvc:  cacheSvc,
		blockTime: defaultBlockTime,
		fetch:     helpers.FetchWithRandomHeaders,
	}
	if source.BlockSeconds > 0 {
		s.blockTime = time.Duration(source.BlockSeconds) * time.Second
	}

	if source.Selectors.IDPattern != "" {
		re, err := regexp.Compile(source.Selectors.IDPattern)
		if err != nil {
			return nil, fmt.Errorf("source %q: invalid id_pattern: %w", source.Name, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("source %q: id_pattern needs one capture group", source.Name)
		}
		s.idRe = re
	}

	return s, nil
}

// Name returns the source name
func (s *Scraper) Name() string {
	return s.source.Name
}

// FetchListings fetches the search page and extracts the listings on it.
// A page whose structure no longer matches the selectors yields an empty
// slice, not an error.
func (s *Scraper) FetchListings() ([]Listing, error) {
	body, err := s.fetchWithGuard(s.source.URL)
	if err != nil {
		return nil, errors.NewNetwork(s.source.Name, "failed to fetch search page", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errors.NewParsing(s.source.Name, "failed to parse search page", err)
	}

	var listings []Listing
	found := make(map[string]struct{})

	doc.Find(s.source.Selectors.Item).Each(func(i int, item *goquery.Selection) {
		href, ok := item.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		url := s.resolveURL(strings.TrimSpace(href))
		id := s.extractID(url)
		if id == "" {
			return
		}
		// The same listing can appear more than once per page
		if _, dup := found[id]; dup {
			return
		}
		found[id] = struct{}{}

		// The anchor's own text stands in for the title when no
		// selector is configured; a price needs an explicit selector
		title := s.extractText(item, s.source.Selectors.Title)
		if s.source.Selectors.Title == "" {
			title = collapseWhitespace(item.Text())
		}

		listings = append(listings, Listing{
			ID:     id,
			Title:  title,
			URL:    url,
			Price:  s.extractText(item, s.source.Selectors.Price),
			Source: s.source.Name,
		})
	})

	return listings, nil
}

// FetchDetails fetches and parses a listing's detail page
func (s *Scraper) FetchDetails(url string) (*Details, error) {
	body, err := s.fetch(url)
	if err != nil {
		return nil, errors.NewNetwork(s.source.Name, "failed to fetch detail page", err)
	}
	return ParseDetails(body)
}

// fetchWithGuard fetches a URL unless the source is currently blocked
// after a rate-limit response
func (s *Scraper) fetchWithGuard(url string) (io.Reader, error) {
	if s.cacheSvc != nil {
		if _, err := s.cacheSvc.Get(s.cacheKey); err == nil {
			return nil, fmt.Errorf("%s: blocked for %d seconds after rate limiting", s.source.Name, int(s.blockTime/time.Second))
		}
	}

	body, err := s.fetch(url)
	if err != nil {
		if s.cacheSvc != nil && stderrors.Is(err, helpers.ErrRateLimited) {
			s.cacheSvc.Set(s.cacheKey, []byte(fmt.Sprintf("%d", int(s.blockTime/time.Second))), s.blockTime)
		}
		return nil, err
	}

	return body, nil
}

// extractID derives the listing id from its URL, either via the
// configured pattern or from the last path segment
func (s *Scraper) extractID(url string) string {
	if s.idRe != nil {
		m := s.idRe.FindStringSubmatch(url)
		if len(m) < 2 {
			return ""
		}
		return m[1]
	}

	segments := strings.Split(strings.Trim(url, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// extractText returns the trimmed text of the selector within item, or
// "" when the selector is empty or matches nothing
func (s *Scraper) extractText(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	sel := item.Find(selector)
	if sel.Length() == 0 {
		return ""
	}
	return collapseWhitespace(sel.First().Text())
}

// resolveURL resolves a relative href against the source's base URL
func (s *Scraper) resolveURL(href string) string {
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base := strings.TrimSuffix(s.source.BaseURL, "/")
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return base + href
}

// collapseWhitespace trims and collapses runs of whitespace into a
// single space
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
