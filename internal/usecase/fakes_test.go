package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"BookAnnotator/internal/domain"
)

type fakeEngine struct {
	mu      sync.Mutex
	results map[string][]string
	errs    map[string]error
	queries []string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Search(ctx context.Context, query string) ([]string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return f.results[query], nil
}

type fakeFetcher struct {
	mu      sync.Mutex
	pages   map[string]string
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, src domain.CandidateSource) (domain.FetchedContent, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, src.URL)
	f.mu.Unlock()
	text, ok := f.pages[src.URL]
	if !ok {
		return domain.FetchedContent{}, errors.New("status 404")
	}
	return domain.FetchedContent{URL: src.URL, Kind: src.Kind, RawText: text}, nil
}

type fakeCompleter struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type countingPacer struct {
	waits int
	err   error
}

func (p *countingPacer) Wait(context.Context) error {
	p.waits++
	return p.err
}

type fakeCatalog struct {
	records map[int64]domain.BibliographicRecord
	lookups int
}

func (f *fakeCatalog) FindRecord(_ context.Context, id int64) (domain.BibliographicRecord, bool, error) {
	f.lookups++
	r, ok := f.records[id]
	return r, ok, nil
}

type ledgerRow struct {
	description *string
	claimedAt   time.Time
}

// memoryLedger mirrors the SQL ledger's claim rules.
type memoryLedger struct {
	mu       sync.Mutex
	rows     map[int64]*ledgerRow
	now      func() time.Time
	finishes int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{rows: map[int64]*ledgerRow{}, now: time.Now}
}

func (l *memoryLedger) set(id int64, description *string, claimedAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows[id] = &ledgerRow{description: description, claimedAt: claimedAt}
}

func (l *memoryLedger) Get(_ context.Context, id int64) (domain.GenerationRecord, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[id]
	if !ok {
		return domain.GenerationRecord{}, false, nil
	}
	rec := domain.GenerationRecord{BookID: id, ClaimedAt: row.claimedAt}
	switch {
	case row.description == nil:
		rec.State = domain.StateNotFound
	case *row.description == domain.GeneratingMarker:
		rec.State = domain.StateGenerating
	default:
		rec.State = domain.StateDescribed
		rec.Description = *row.description
	}
	return rec, true, nil
}

func (l *memoryLedger) Claim(_ context.Context, id int64, staleBefore time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	marker := domain.GeneratingMarker
	row, ok := l.rows[id]
	if !ok {
		l.rows[id] = &ledgerRow{description: &marker, claimedAt: l.now()}
		return true, nil
	}
	if row.description != nil && *row.description == marker && row.claimedAt.Before(staleBefore) {
		row.claimedAt = l.now()
		return true, nil
	}
	return false, nil
}

func (l *memoryLedger) Finish(ctx context.Context, id int64, description *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finishes++
	l.rows[id] = &ledgerRow{description: description}
	return nil
}

func (l *memoryLedger) row(id int64) (domain.GenerationRecord, bool) {
	rec, ok, _ := l.Get(context.Background(), id)
	return rec, ok
}

type enricherFunc func(ctx context.Context, record domain.BibliographicRecord) (string, error)

func (f enricherFunc) Run(ctx context.Context, record domain.BibliographicRecord) (string, error) {
	return f(ctx, record)
}

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
