package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"BookAnnotator/internal/domain"
	"BookAnnotator/internal/ports"
)

const previewLength = 150

// PipelineDeps wires all driven adapters into the enrichment pipeline.
type PipelineDeps struct {
	Search        ports.SearchEngine
	Fetcher       ports.PageFetcher
	Completer     ports.TextCompleter
	SearchPacer   ports.Pacer
	FetchPacer    ports.Pacer
	Discovery     DiscovererOptions
	MaxCandidates int
	Logger        *slog.Logger
}

// Pipeline finds sources for a record and synthesizes its annotation.
// A run is strictly sequential: one query, then one fetch, at a time.
type Pipeline struct {
	discoverer    *Discoverer
	fetcher       ports.PageFetcher
	fetchPacer    ports.Pacer
	synthesizer   *Synthesizer
	maxCandidates int
	logger        *slog.Logger
}

// FetchOutcome is the per-source result of the fetch stage.
type FetchOutcome struct {
	Source  domain.CandidateSource
	Content domain.FetchedContent
	Err     error
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		discoverer:    NewDiscoverer(deps.Search, deps.SearchPacer, deps.Discovery, logger.With("stage", "discover")),
		fetcher:       deps.Fetcher,
		fetchPacer:    deps.FetchPacer,
		synthesizer:   NewSynthesizer(deps.Completer),
		maxCandidates: deps.MaxCandidates,
		logger:        logger,
	}
}

// Run executes every stage for record and returns the annotation. Terminal
// negatives are reported through the sentinel errors of this package.
func (p *Pipeline) Run(ctx context.Context, record domain.BibliographicRecord) (string, error) {
	log := p.logger.With("run_id", uuid.NewString(), "doc_id", record.ID)

	queries, err := BuildQueries(record)
	if err != nil {
		return "", err
	}
	if !record.HasAuthor() {
		log.Warn("record has no author, searching by title only", "title", record.Title)
	}
	log.Info("searching sources", "title", record.Title, "author", record.PrimaryAuthor(), "queries", len(queries))

	urls, err := p.discoverer.Discover(ctx, queries)
	if err != nil {
		return "", fmt.Errorf("discover sources: %w", err)
	}
	if len(urls) == 0 {
		log.Info("no urls discovered")
		return "", ErrNoSourcesDiscovered
	}

	candidates := Prioritize(urls, p.maxCandidates)
	log.Info("fetching sources", "unique_urls", len(urls), "candidates", len(candidates))

	outcomes, err := p.fetchAll(ctx, candidates, log)
	if err != nil {
		return "", fmt.Errorf("fetch sources: %w", err)
	}

	scored := ScoreOutcomes(record, outcomes, log)
	combined, top, err := Aggregate(scored)
	if err != nil {
		log.Info("no relevant sources", "fetched", len(outcomes))
		return "", err
	}
	reportTopSources(log, top)
	log.Info("synthesizing annotation", "content_runes", len([]rune(combined)))

	annotation, err := p.synthesizer.Annotate(ctx, record, combined)
	if err != nil {
		return "", err
	}
	return annotation, nil
}

// fetchAll fetches candidates one by one. Per-source errors become outcomes;
// only cancellation of ctx aborts the batch.
func (p *Pipeline) fetchAll(ctx context.Context, candidates []domain.CandidateSource, log *slog.Logger) ([]FetchOutcome, error) {
	outcomes := make([]FetchOutcome, 0, len(candidates))
	for i, c := range candidates {
		if p.fetchPacer != nil {
			if err := p.fetchPacer.Wait(ctx); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, err := p.fetcher.Fetch(ctx, c)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Debug("source skipped", "n", i+1, "url", c.URL, "kind", c.Kind, "error", err)
		}
		outcomes = append(outcomes, FetchOutcome{Source: c, Content: content, Err: err})
	}
	return outcomes, nil
}

// ScoreOutcomes extracts and scores every successfully fetched source.
func ScoreOutcomes(record domain.BibliographicRecord, outcomes []FetchOutcome, log *slog.Logger) []domain.ScoredSource {
	terms := NewRecordTerms(record)
	scored := make([]domain.ScoredSource, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		ex := ExtractRelevant(o.Content.RawText, o.Content.Kind, terms)
		score := ScoreRelevance(o.Content.URL, ex.Text, terms, ex.WindowScore)
		if log != nil {
			log.Debug("source scored", "url", o.Content.URL, "window_score", ex.WindowScore, "score", score)
		}
		scored = append(scored, domain.ScoredSource{
			URL:    o.Content.URL,
			Kind:   o.Content.Kind,
			Window: ex.Text,
			Score:  score,
		})
	}
	return scored
}

func reportTopSources(log *slog.Logger, top []domain.ScoredSource) {
	for i, s := range top {
		preview := CollapseWhitespace(truncateRunes(s.Window, previewLength))
		log.Info("top source",
			"rank", i+1,
			"score", s.Score,
			"kind", strings.ToUpper(string(s.Kind)),
			"url", s.URL,
			"preview", preview,
		)
	}
}
