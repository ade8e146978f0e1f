// Package rss fetches remote feeds conditionally and ingests their entries.
package rss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"newsfeed/internal/domain"

	"github.com/mmcdole/gofeed"
)

const (
	defaultFetchTimeout = 20 * time.Second
	defaultUserAgent    = "newsfeed/1.0 (+RSS aggregator)"
	maxFeedSize         = 10 << 20
)

// Entry is a feed entry reduced to the fields the store keeps. Summary is
// empty when the feed carried none.
type Entry struct {
	Title   string
	Link    string
	Summary string
}

// Result is the outcome of one conditional fetch.
type Result struct {
	Entries []Entry
	// Validator is what the source should carry after this poll.
	Validator domain.Validator
	// NotModified is set only when an ETag precondition matched; the caller
	// must skip ingestion.
	NotModified bool
}

// FetchError describes a transport, status or parse failure for one feed.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected HTTP status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Fetcher struct {
	client    *http.Client
	parser    *gofeed.Parser
	userAgent string
}

type Option func(*Fetcher)

func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

func NewFetcher(timeout time.Duration, opts ...Option) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	f := &Fetcher{
		client:    &http.Client{Timeout: timeout},
		parser:    gofeed.NewParser(),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves feedURL, presenting the stored validator as a
// precondition. A validator is only derived from the response when none was
// stored; an existing one is carried over unchanged.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string, stored domain.Validator) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.8, */*;q=0.5")

	switch stored.Kind {
	case domain.ValidatorETag:
		req.Header.Set("If-None-Match", stored.Value)
	case domain.ValidatorLastModified:
		req.Header.Set("If-Modified-Since", stored.Value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		// Only the ETag regime short-circuits; a 304 under Last-Modified
		// simply yields no entries.
		return &Result{
			Validator:   stored,
			NotModified: stored.Kind == domain.ValidatorETag,
		}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: feedURL, StatusCode: resp.StatusCode}
	}

	feed, err := f.parser.Parse(io.LimitReader(resp.Body, maxFeedSize))
	if err != nil {
		return nil, &FetchError{URL: feedURL, Err: fmt.Errorf("parse feed: %w", err)}
	}

	result := &Result{
		Entries:   convertItems(feed.Items),
		Validator: stored,
	}
	if stored.IsZero() {
		result.Validator = validatorFromHeaders(resp.Header)
	}
	return result, nil
}

func validatorFromHeaders(h http.Header) domain.Validator {
	if etag := h.Get("ETag"); etag != "" {
		return domain.Validator{Kind: domain.ValidatorETag, Value: etag}
	}
	if modified := h.Get("Last-Modified"); modified != "" {
		return domain.Validator{Kind: domain.ValidatorLastModified, Value: modified}
	}
	return domain.Validator{}
}

func convertItems(items []*gofeed.Item) []Entry {
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		summary := item.Description
		if summary == "" {
			summary = item.Content
		}
		entries = append(entries, Entry{
			Title:   item.Title,
			Link:    item.Link,
			Summary: summary,
		})
	}
	return entries
}
