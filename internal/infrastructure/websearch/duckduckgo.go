package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"BookAnnotator/internal/ports"
)

const (
	DuckDuckGoName     = "duckduckgo"
	duckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

	DefaultUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultAcceptLanguage = "kk-KZ,kk;q=0.9,ru-RU,ru;q=0.8,en;q=0.7"
	defaultTimeout        = 10 * time.Second
)

// Options configures an engine's HTTP behaviour.
type Options struct {
	Endpoint       string
	UserAgent      string
	AcceptLanguage string
	Timeout        time.Duration
}

func (o Options) withDefaults(endpoint string) Options {
	if o.Endpoint == "" {
		o.Endpoint = endpoint
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.AcceptLanguage == "" {
		o.AcceptLanguage = DefaultAcceptLanguage
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return o
}

// DuckDuckGo scrapes the HTML results page; result links are redirect URLs
// carrying the target in the uddg parameter.
type DuckDuckGo struct {
	client *http.Client
	opts   Options
}

var _ ports.SearchEngine = (*DuckDuckGo)(nil)

// NewDuckDuckGo wires an HTTP client; a nil client gets the configured timeout.
func NewDuckDuckGo(client *http.Client, opts Options) *DuckDuckGo {
	opts = opts.withDefaults(duckDuckGoEndpoint)
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &DuckDuckGo{client: client, opts: opts}
}

// Name identifies the engine inside the registry.
func (d *DuckDuckGo) Name() string {
	return DuckDuckGoName
}

// Search returns the decoded result links for query.
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	searchURL, err := buildSearchURL(d.opts.Endpoint, query)
	if err != nil {
		return nil, err
	}

	doc, err := d.fetchDocument(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	return extractResultLinks(doc), nil
}

func (d *DuckDuckGo) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", d.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", d.opts.AcceptLanguage)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return doc, nil
}

// extractResultLinks collects uddg targets in page order without duplicates.
func extractResultLinks(doc *goquery.Document) []string {
	var (
		links []string
		seen  = map[string]struct{}{}
	)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		target := redirectTarget(href)
		if target == "" {
			return
		}
		if _, ok := seen[target]; ok {
			return
		}
		seen[target] = struct{}{}
		links = append(links, target)
	})
	return links
}

func redirectTarget(href string) string {
	if !strings.Contains(href, "uddg=") {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Query().Get("uddg"))
}

func buildSearchURL(endpoint, query string) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid search endpoint %s: %w", endpoint, err)
	}
	q := parsed.Query()
	q.Set("q", query)
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}
