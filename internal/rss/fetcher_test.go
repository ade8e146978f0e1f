package rss

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"newsfeed/internal/domain"
)

const twoItemFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test feed</title>
    <link>http://example.com/</link>
    <description>test</description>
    <item>
      <title>A</title>
      <link>http://example.com/a</link>
      <description>first entry</description>
    </item>
    <item>
      <title>B</title>
      <link>http://example.com/b</link>
    </item>
  </channel>
</rss>`

const atomContentFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom feed</title>
  <id>urn:test</id>
  <updated>2024-01-01T00:00:00Z</updated>
  <entry>
    <title>Only content</title>
    <id>urn:test:1</id>
    <link href="http://example.com/1"/>
    <updated>2024-01-01T00:00:00Z</updated>
    <content type="text">body text</content>
  </entry>
</feed>`

func TestFetch_NoValidatorRecordsETag(t *testing.T) {
	var gotUA, gotINM string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotINM = r.Header.Get("If-None-Match")
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Mon, 01 Jan 2024 00:00:00 GMT")
		w.Write([]byte(twoItemFeed))
	}))
	defer srv.Close()

	f := NewFetcher(5*time.Second, WithUserAgent("test-agent"))
	res, err := f.Fetch(context.Background(), srv.URL, domain.Validator{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if gotUA != "test-agent" {
		t.Errorf("User-Agent: got %q", gotUA)
	}
	if gotINM != "" {
		t.Errorf("unconditional fetch sent If-None-Match %q", gotINM)
	}
	if res.NotModified {
		t.Error("NotModified should be false")
	}
	want := domain.Validator{Kind: domain.ValidatorETag, Value: `"v1"`}
	if res.Validator != want {
		t.Errorf("validator: got %+v, want %+v", res.Validator, want)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("entries: got %d, want 2", len(res.Entries))
	}
	if res.Entries[0].Title != "A" || res.Entries[0].Link != "http://example.com/a" || res.Entries[0].Summary != "first entry" {
		t.Errorf("entry 0: %+v", res.Entries[0])
	}
	if res.Entries[1].Summary != "" {
		t.Errorf("missing summary should be empty, got %q", res.Entries[1].Summary)
	}
}

func TestFetch_NoValidatorFallsBackToLastModified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", "Mon, 01 Jan 2024 00:00:00 GMT")
		w.Write([]byte(twoItemFeed))
	}))
	defer srv.Close()

	res, err := NewFetcher(0).Fetch(context.Background(), srv.URL, domain.Validator{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	want := domain.Validator{Kind: domain.ValidatorLastModified, Value: "Mon, 01 Jan 2024 00:00:00 GMT"}
	if res.Validator != want {
		t.Errorf("validator: got %+v, want %+v", res.Validator, want)
	}
}

func TestFetch_NoHeadersLeavesValidatorEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(twoItemFeed))
	}))
	defer srv.Close()

	res, err := NewFetcher(0).Fetch(context.Background(), srv.URL, domain.Validator{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !res.Validator.IsZero() {
		t.Errorf("expected no validator, got %+v", res.Validator)
	}
}

func TestFetch_ETagNotModified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Write([]byte(twoItemFeed))
	}))
	defer srv.Close()

	stored := domain.Validator{Kind: domain.ValidatorETag, Value: `"v1"`}
	res, err := NewFetcher(0).Fetch(context.Background(), srv.URL, stored)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !res.NotModified {
		t.Error("expected NotModified")
	}
	if len(res.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(res.Entries))
	}
	if res.Validator != stored {
		t.Errorf("validator changed: %+v", res.Validator)
	}
}

func TestFetch_StoredValidatorIsNotRederived(t *testing.T) {
	var gotIMS string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotIMS = r.Header.Get("If-Modified-Since")
		w.Header().Set("ETag", `"new"`)
		w.Header().Set("Last-Modified", "Tue, 02 Jan 2024 00:00:00 GMT")
		w.Write([]byte(twoItemFeed))
	}))
	defer srv.Close()

	stored := domain.Validator{Kind: domain.ValidatorLastModified, Value: "Mon, 01 Jan 2024 00:00:00 GMT"}
	res, err := NewFetcher(0).Fetch(context.Background(), srv.URL, stored)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotIMS != stored.Value {
		t.Errorf("If-Modified-Since: got %q, want %q", gotIMS, stored.Value)
	}
	if res.Validator != stored {
		t.Errorf("validator should be retained, got %+v", res.Validator)
	}
	if len(res.Entries) != 2 {
		t.Errorf("Last-Modified regime should return the full list, got %d", len(res.Entries))
	}
}

func TestFetch_LastModifiedNotModifiedYieldsNoEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	stored := domain.Validator{Kind: domain.ValidatorLastModified, Value: "Mon, 01 Jan 2024 00:00:00 GMT"}
	res, err := NewFetcher(0).Fetch(context.Background(), srv.URL, stored)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if res.NotModified {
		t.Error("Last-Modified regime must not short-circuit")
	}
	if len(res.Entries) != 0 || res.Validator != stored {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestFetch_SummaryFallsBackToContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(atomContentFeed))
	}))
	defer srv.Close()

	res, err := NewFetcher(0).Fetch(context.Background(), srv.URL, domain.Validator{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(res.Entries) != 1 || res.Entries[0].Summary != "body text" {
		t.Errorf("entries: %+v", res.Entries)
	}
}

func TestFetch_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		default:
			w.Write([]byte("this is not a feed"))
		}
	}))
	defer srv.Close()

	f := NewFetcher(0)

	_, err := f.Fetch(context.Background(), srv.URL+"/missing", domain.Validator{})
	var fe *FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusNotFound {
		t.Errorf("404: got %v", err)
	}

	_, err = f.Fetch(context.Background(), srv.URL+"/garbage", domain.Validator{})
	if !errors.As(err, &fe) || fe.StatusCode != 0 || fe.Err == nil {
		t.Errorf("malformed feed: got %v", err)
	}

	_, err = f.Fetch(context.Background(), "http://127.0.0.1:1/unreachable", domain.Validator{})
	if !errors.As(err, &fe) {
		t.Errorf("unreachable: got %v", err)
	}
}
