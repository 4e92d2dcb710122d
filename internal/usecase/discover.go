package usecase

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"BookAnnotator/internal/ports"
)

// DefaultMaxURLLength rejects URLs this long or longer; very long links are
// mostly tracking or spam redirects.
const DefaultMaxURLLength = 300

// DefaultExcludedHosts never carry book descriptions.
var DefaultExcludedHosts = []string{
	"duckduckgo.com",
	"facebook.com",
	"twitter.com",
	"instagram.com",
}

// DiscovererOptions tunes URL filtering.
type DiscovererOptions struct {
	ExcludedHosts []string
	MaxURLLength  int
}

// Discoverer issues queries one at a time and collects distinct result URLs.
type Discoverer struct {
	engine   ports.SearchEngine
	pacer    ports.Pacer
	excluded []string
	maxLen   int
	logger   *slog.Logger
}

// NewDiscoverer wires a search engine with its pacing policy. A nil pacer
// disables pacing.
func NewDiscoverer(engine ports.SearchEngine, pacer ports.Pacer, opts DiscovererOptions, log *slog.Logger) *Discoverer {
	excluded := opts.ExcludedHosts
	if excluded == nil {
		excluded = DefaultExcludedHosts
	}
	maxLen := opts.MaxURLLength
	if maxLen <= 0 {
		maxLen = DefaultMaxURLLength
	}
	return &Discoverer{
		engine:   engine,
		pacer:    pacer,
		excluded: excluded,
		maxLen:   maxLen,
		logger:   log,
	}
}

// Discover runs every query and returns the deduplicated URLs in first-seen
// order. A failing query yields no URLs; only context cancellation aborts.
func (d *Discoverer) Discover(ctx context.Context, queries []string) ([]string, error) {
	var (
		collected []string
		seen      = map[string]struct{}{}
	)

	for i, q := range queries {
		if d.pacer != nil {
			if err := d.pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}

		raw, err := d.engine.Search(ctx, q)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			d.debug("search failed", "engine", d.engine.Name(), "query", q, "error", err)
			continue
		}

		added := 0
		for _, link := range raw {
			normalized, ok := d.normalize(link)
			if !ok {
				continue
			}
			if _, dup := seen[normalized]; dup {
				continue
			}
			seen[normalized] = struct{}{}
			collected = append(collected, normalized)
			added++
		}
		d.debug("query done", "n", i+1, "of", len(queries), "query", q, "results", len(raw), "new_urls", added)
	}

	return collected, nil
}

// normalize ensures a scheme, rejects malformed, over-long and excluded URLs.
func (d *Discoverer) normalize(link string) (string, bool) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", false
	}
	if !strings.HasPrefix(link, "http") {
		link = "https://" + link
	}
	if utf8.RuneCountInString(link) >= d.maxLen {
		return "", false
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" || !strings.Contains(host, ".") {
		return "", false
	}
	for _, ex := range d.excluded {
		ex = strings.ToLower(ex)
		if host == ex || strings.HasSuffix(host, "."+ex) {
			return "", false
		}
	}
	return link, true
}

func (d *Discoverer) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
