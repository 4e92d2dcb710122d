package ports

import (
	"context"
	"time"

	"BookAnnotator/internal/domain"
)

// SearchEngine turns a query into result URLs. Implementations return raw
// links; normalisation and filtering happen in the discoverer.
type SearchEngine interface {
	Name() string
	Search(ctx context.Context, query string) ([]string, error)
}

// PageFetcher retrieves the whitespace-normalised text of a single source.
// The fetcher owns the per-kind deadline.
type PageFetcher interface {
	Fetch(ctx context.Context, source domain.CandidateSource) (domain.FetchedContent, error)
}

// TextCompleter is the black-box language model: prompt in, text out.
type TextCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Pacer enforces the minimum spacing between outbound calls.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Catalog looks up bibliographic records by identifier.
type Catalog interface {
	// FindRecord returns found=false when the identifier is unknown.
	FindRecord(ctx context.Context, id int64) (domain.BibliographicRecord, bool, error)
}

// Ledger persists generation status per book.
type Ledger interface {
	Get(ctx context.Context, bookID int64) (domain.GenerationRecord, bool, error)
	// Claim marks the book as generating. It reports false when another caller
	// holds a claim newer than staleBefore or the row is already terminal.
	Claim(ctx context.Context, bookID int64, staleBefore time.Time) (bool, error)
	// Finish stores the final description; nil records a definitive not-found.
	Finish(ctx context.Context, bookID int64, description *string) error
}
