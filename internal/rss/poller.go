package rss

import (
	"context"
	"fmt"
	"sync"

	"newsfeed/internal/domain"
	"newsfeed/internal/logger"
	"newsfeed/internal/repository"

	"github.com/google/uuid"
)

// FeedFetcher is the conditional fetch the poller depends on.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string, stored domain.Validator) (*Result, error)
}

// SourceFailure records a source that could not be polled.
type SourceFailure struct {
	SourceID int
	URL      string
	Err      error
}

// PollReport summarises one batch poll.
type PollReport struct {
	RunID       string
	Polled      int
	NotModified int
	Created     int
	Failures    []SourceFailure
}

// Poller drives fetch and ingest for a set of sources.
type Poller struct {
	sources  repository.SourceRepository
	fetcher  FeedFetcher
	ingester *Ingester
	locks    *keyedMutex
}

func NewPoller(sources repository.SourceRepository, fetcher FeedFetcher, ingester *Ingester) *Poller {
	return &Poller{
		sources:  sources,
		fetcher:  fetcher,
		ingester: ingester,
		locks:    newKeyedMutex(),
	}
}

// PollAll polls each source in order. A failing source is recorded in the
// report and the batch moves on.
func (p *Poller) PollAll(ctx context.Context, sourceIDs []int) PollReport {
	report := PollReport{RunID: uuid.NewString()}
	log := logger.With("run", report.RunID)

	for _, id := range sourceIDs {
		if err := ctx.Err(); err != nil {
			log.Warnf("Poll cancelled after %d of %d sources: %v", report.Polled, len(sourceIDs), err)
			break
		}

		outcome, err := p.PollSource(ctx, id)
		report.Polled++
		if err != nil {
			log.Warnf("Error polling source %d: %v", id, err)
			report.Failures = append(report.Failures, SourceFailure{SourceID: id, URL: outcome.URL, Err: err})
			continue
		}
		if outcome.NotModified {
			report.NotModified++
		}
		report.Created += outcome.Created
	}

	log.Infof("Polled %d sources: %d new items, %d not modified, %d failed",
		report.Polled, report.Created, report.NotModified, len(report.Failures))
	return report
}

// SourceOutcome is the result of polling a single source.
type SourceOutcome struct {
	URL         string
	Created     int
	NotModified bool
}

// PollSource fetches one source and ingests its entries. Polls of the same
// source are serialised within the process.
func (p *Poller) PollSource(ctx context.Context, sourceID int) (SourceOutcome, error) {
	unlock := p.locks.lock(sourceID)
	defer unlock()

	source, err := p.sources.GetByID(ctx, sourceID)
	if err != nil {
		return SourceOutcome{}, fmt.Errorf("failed to load source: %w", err)
	}
	outcome := SourceOutcome{URL: source.URL}

	result, err := p.fetcher.Fetch(ctx, source.URL, source.Validator)
	if err != nil {
		return outcome, err
	}
	if result.NotModified {
		outcome.NotModified = true
		return outcome, nil
	}

	// Validators are learned once and never rewritten.
	if source.Validator.IsZero() && !result.Validator.IsZero() {
		if err := p.sources.UpdateValidator(ctx, source.ID, result.Validator); err != nil {
			return outcome, fmt.Errorf("failed to store validator: %w", err)
		}
		source.Validator = result.Validator
	}

	outcome.Created = p.ingester.Ingest(ctx, result.Entries, source)
	return outcome, nil
}

type keyedMutex struct {
	mu    sync.Mutex
	locks map[int]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int]*refMutex)}
}

func (k *keyedMutex) lock(key int) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
