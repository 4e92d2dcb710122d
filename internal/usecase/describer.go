package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"BookAnnotator/internal/domain"
	"BookAnnotator/internal/ports"
)

const (
	// DefaultStaleAfter is how long a generating marker blocks other callers.
	DefaultStaleAfter = 10 * time.Minute

	finishTimeout = 10 * time.Second
)

// Enricher produces a description for a record.
type Enricher interface {
	Run(ctx context.Context, record domain.BibliographicRecord) (string, error)
}

// DescriberDeps wires the describe use case.
type DescriberDeps struct {
	Catalog    ports.Catalog
	Ledger     ports.Ledger
	Enricher   Enricher
	StaleAfter time.Duration
	Logger     *slog.Logger
	Now        func() time.Time
}

// Describer answers "describe this book" through the generation ledger:
// terminal rows are served from the ledger, everything else runs the
// pipeline under a claim and closes the row when done.
type Describer struct {
	catalog    ports.Catalog
	ledger     ports.Ledger
	enricher   Enricher
	staleAfter time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewDescriber constructs the use case.
func NewDescriber(deps DescriberDeps) *Describer {
	d := &Describer{
		catalog:    deps.Catalog,
		ledger:     deps.Ledger,
		enricher:   deps.Enricher,
		staleAfter: deps.StaleAfter,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if d.staleAfter <= 0 {
		d.staleAfter = DefaultStaleAfter
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// Describe returns the cached or freshly generated description of bookID.
// A definitive negative is a result with Failed set, not an error.
func (d *Describer) Describe(ctx context.Context, bookID int64) (domain.DescribeResult, error) {
	row, found, err := d.ledger.Get(ctx, bookID)
	if err != nil {
		return domain.DescribeResult{}, fmt.Errorf("read ledger %d: %w", bookID, err)
	}
	if found && row.Terminal() {
		return cachedResult(row), nil
	}

	claimed, err := d.ledger.Claim(ctx, bookID, d.now().Add(-d.staleAfter))
	if err != nil {
		return domain.DescribeResult{}, fmt.Errorf("claim ledger %d: %w", bookID, err)
	}
	if !claimed {
		return d.afterLostClaim(ctx, bookID)
	}

	return d.run(ctx, bookID)
}

type runOutcome struct {
	res domain.DescribeResult
	err error
}

// run generates under a context detached from the caller and bounded by the
// stale window. A caller that leaves early gets its context error while the
// run still closes the ledger row.
func (d *Describer) run(ctx context.Context, bookID int64) (domain.DescribeResult, error) {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.staleAfter)
	done := make(chan runOutcome, 1)
	go func() {
		defer cancel()
		description, runErr := d.generate(runCtx, bookID)
		res, err := d.finish(runCtx, bookID, description, runErr)
		done <- runOutcome{res: res, err: err}
	}()

	select {
	case out := <-done:
		return out.res, out.err
	case <-ctx.Done():
		d.logger.Info("caller left, generation continues", "doc_id", bookID)
		return domain.DescribeResult{BookID: bookID}, fmt.Errorf("describe %d: %w", bookID, ctx.Err())
	}
}

func (d *Describer) generate(ctx context.Context, bookID int64) (string, error) {
	record, found, err := d.catalog.FindRecord(ctx, bookID)
	if err != nil {
		return "", fmt.Errorf("load record %d: %w", bookID, err)
	}
	if !found {
		return "", ErrBookNotFound
	}
	if record.ID == 0 {
		record.ID = bookID
	}
	return d.enricher.Run(ctx, record)
}

// finish closes the ledger row with its own deadline so a run that hit its
// time limit still records the outcome.
func (d *Describer) finish(ctx context.Context, bookID int64, description string, runErr error) (domain.DescribeResult, error) {
	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()

	log := d.logger.With("doc_id", bookID)

	if runErr == nil {
		if err := d.ledger.Finish(finishCtx, bookID, &description); err != nil {
			return domain.DescribeResult{}, fmt.Errorf("store description %d: %w", bookID, err)
		}
		log.Info("description generated")
		return domain.DescribeResult{BookID: bookID, Description: description}, nil
	}

	if err := d.ledger.Finish(finishCtx, bookID, nil); err != nil {
		log.Error("failed to close ledger row", "error", err)
		if IsNotFound(runErr) {
			return domain.DescribeResult{}, fmt.Errorf("store not-found %d: %w", bookID, err)
		}
	}

	if IsNotFound(runErr) {
		log.Info("no description found", "reason", runErr)
		return domain.DescribeResult{BookID: bookID, Failed: true}, nil
	}

	log.Error("description generation failed", "error", runErr)
	return domain.DescribeResult{}, fmt.Errorf("describe %d: %w", bookID, runErr)
}

// afterLostClaim re-reads the row: it may have become terminal meanwhile.
func (d *Describer) afterLostClaim(ctx context.Context, bookID int64) (domain.DescribeResult, error) {
	row, found, err := d.ledger.Get(ctx, bookID)
	if err != nil {
		return domain.DescribeResult{}, fmt.Errorf("read ledger %d: %w", bookID, err)
	}
	if found && row.Terminal() {
		return cachedResult(row), nil
	}
	return domain.DescribeResult{BookID: bookID}, ErrGenerationInProgress
}

func cachedResult(row domain.GenerationRecord) domain.DescribeResult {
	res := domain.DescribeResult{BookID: row.BookID, Cached: true}
	if row.State == domain.StateDescribed {
		res.Description = row.Description
	} else {
		res.Failed = true
	}
	return res
}

// IsInProgress reports whether err means another caller is generating.
func IsInProgress(err error) bool {
	return errors.Is(err, ErrGenerationInProgress)
}
