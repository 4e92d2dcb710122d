package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"BookAnnotator/internal/config"
	"BookAnnotator/internal/domain"
	"BookAnnotator/internal/httpapi"
	"BookAnnotator/internal/infrastructure/fetch"
	"BookAnnotator/internal/infrastructure/llm"
	"BookAnnotator/internal/infrastructure/storage"
	"BookAnnotator/internal/infrastructure/websearch"
	"BookAnnotator/internal/logging"
	"BookAnnotator/internal/ports"
	"BookAnnotator/internal/ratelimit"
	"BookAnnotator/internal/search"
	"BookAnnotator/internal/usecase"
)

const (
	shutdownTimeout = 15 * time.Second
	// responseMargin covers closing the ledger row and writing the reply.
	responseMargin = 15 * time.Second
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	dbs       []*sql.DB
	describer *usecase.Describer
}

// New opens storage, builds every adapter and the describe use case.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	ledger, err := a.openLedger(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	catalogDB, err := a.open(ctx, cfg.Catalog.Driver, cfg.Catalog.DSN)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("catalog: %w", err)
	}
	catalog, err := storage.NewCatalog(catalogDB, cfg.Catalog.Driver, cfg.Catalog.Table)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	engine, err := newSearchEngine(cfg.Search)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if cfg.ChatGPT.APIKey == "" {
		baseLogger.Warn("chatgpt api key is not set, every generation will fail")
	}

	searchPacer := ratelimit.NewPacer("search", cfg.Search.QueryInterval.Duration())
	fetchPacer := ratelimit.NewPacer("fetch", cfg.Fetch.Interval.Duration())
	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Search: engine,
		Fetcher: fetch.NewFetcher(nil, fetch.Options{
			HTMLTimeout:  cfg.Fetch.HTMLTimeout.Duration(),
			PDFTimeout:   cfg.Fetch.PDFTimeout.Duration(),
			MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
			UserAgent:    cfg.Fetch.UserAgent,
		}),
		Completer:   llm.NewChatGPTClient(cfg.ChatGPT),
		SearchPacer: searchPacer,
		FetchPacer:  fetchPacer,
		Discovery: usecase.DiscovererOptions{
			ExcludedHosts: cfg.Search.ExcludedHosts,
			MaxURLLength:  cfg.Search.MaxURLLength,
		},
		MaxCandidates: cfg.Fetch.MaxCandidates,
		Logger:        baseLogger.With("component", "pipeline"),
	})

	a.describer = usecase.NewDescriber(usecase.DescriberDeps{
		Catalog:    catalog,
		Ledger:     ledger,
		Enricher:   pipeline,
		StaleAfter: cfg.Ledger.StaleAfter.Duration(),
		Logger:     baseLogger.With("component", "describer"),
	})

	baseLogger.Info("application ready",
		"engine", engine.Name(),
		"ledger_driver", cfg.Ledger.Driver,
		"catalog_driver", cfg.Catalog.Driver,
		"model", cfg.ChatGPT.Model,
		"write_timeout", writeTimeout(cfg),
		slog.Group("pacing",
			searchPacer.Name(), searchPacer.Interval(),
			fetchPacer.Name(), fetchPacer.Interval(),
		),
	)
	return a, nil
}

// Describe runs the describe use case once.
func (a *Application) Describe(ctx context.Context, bookID int64) (domain.DescribeResult, error) {
	return a.describer.Describe(ctx, bookID)
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	handler := httpapi.NewHandler(a.describer, a.logger.With("component", "http"))
	server := &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      httpapi.NewRouter(handler),
		ReadTimeout:  a.cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: writeTimeout(a.cfg),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases database handles.
func (a *Application) Close() error {
	var errs []error
	for _, db := range a.dbs {
		errs = append(errs, db.Close())
	}
	a.dbs = nil
	return errors.Join(errs...)
}

// Migrate creates or upgrades the ledger table without touching the catalog.
func Migrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	a := &Application{cfg: cfg, logger: logger}
	defer a.Close()

	if _, err := a.openLedger(ctx); err != nil {
		return err
	}
	logger.Info("ledger schema ready", "driver", cfg.Ledger.Driver, "table", cfg.Ledger.Table)
	return nil
}

func (a *Application) openLedger(ctx context.Context) (*storage.Ledger, error) {
	db, err := a.open(ctx, a.cfg.Ledger.Driver, a.cfg.Ledger.DSN)
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	ledger, err := storage.NewLedger(db, a.cfg.Ledger.Driver, a.cfg.Ledger.Table)
	if err != nil {
		return nil, err
	}
	if err := ledger.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ledger schema: %w", err)
	}
	return ledger, nil
}

func (a *Application) open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := storage.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	a.dbs = append(a.dbs, db)
	return db, nil
}

func newSearchEngine(cfg config.SearchConfig) (ports.SearchEngine, error) {
	opts := websearch.Options{
		Endpoint:       cfg.Endpoint,
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		Timeout:        cfg.Timeout.Duration(),
	}

	registry := search.NewRegistry()
	registry.Register(websearch.NewDuckDuckGo(nil, opts))
	registry.Register(websearch.NewSearXNG(nil, opts))

	return registry.Resolve(cfg.Engine)
}

// writeTimeout keeps the response open for the longest run the pacing and
// per-call deadlines allow. Runs never outlive the stale window, so that caps
// the estimate. A larger configured timeout wins.
func writeTimeout(cfg config.Config) time.Duration {
	candidates := cfg.Fetch.MaxCandidates
	if candidates <= 0 {
		candidates = usecase.DefaultMaxCandidates
	}
	run := time.Duration(usecase.MaxQueries)*(cfg.Search.QueryInterval.Duration()+cfg.Search.Timeout.Duration()) +
		time.Duration(candidates)*(cfg.Fetch.Interval.Duration()+cfg.Fetch.PDFTimeout.Duration()) +
		cfg.ChatGPT.Timeout.Duration()

	stale := cfg.Ledger.StaleAfter.Duration()
	if stale <= 0 {
		stale = usecase.DefaultStaleAfter
	}
	return max(min(run, stale)+responseMargin, cfg.HTTP.WriteTimeout.Duration())
}
