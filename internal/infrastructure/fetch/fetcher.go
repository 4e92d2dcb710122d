package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"BookAnnotator/internal/domain"
	"BookAnnotator/internal/ports"
)

const (
	DefaultHTMLTimeout  = 10 * time.Second
	DefaultPDFTimeout   = 15 * time.Second
	DefaultMaxBodyBytes = 32 << 20
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	acceptLanguage      = "kk-KZ,kk;q=0.9,ru-RU,ru;q=0.8,en;q=0.7"

	// MinPDFText is the shortest PDF text accepted as a successful parse.
	MinPDFText = 50
)

var (
	ErrInvalidURL  = errors.New("invalid source url")
	ErrEmptyText   = errors.New("no text extracted")
	ErrPDFTooShort = errors.New("pdf text too short")
	ErrBodyTooLong = errors.New("response body exceeds limit")
)

// Options configures deadlines and limits.
type Options struct {
	HTMLTimeout  time.Duration
	PDFTimeout   time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

// Fetcher downloads one source at a time and returns its plain text.
type Fetcher struct {
	client   *http.Client
	opts     Options
	parsePDF func([]byte) (string, error)
}

var _ ports.PageFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client. Deadlines are enforced per call through
// the request context, so the client itself carries no timeout by default.
func NewFetcher(client *http.Client, opts Options) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if opts.HTMLTimeout <= 0 {
		opts.HTMLTimeout = DefaultHTMLTimeout
	}
	if opts.PDFTimeout <= 0 {
		opts.PDFTimeout = DefaultPDFTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Fetcher{client: client, opts: opts, parsePDF: extractPDFText}
}

// Fetch retrieves src within the deadline for its kind. Any failure is
// returned as an error for this source only.
func (f *Fetcher) Fetch(ctx context.Context, src domain.CandidateSource) (domain.FetchedContent, error) {
	target, err := sanitizeURL(src.URL)
	if err != nil {
		return domain.FetchedContent{}, err
	}

	kind := src.Kind
	if kind == "" {
		kind = domain.KindOf(target)
	}

	timeout := f.opts.HTMLTimeout
	if kind == domain.KindPDF {
		timeout = f.opts.PDFTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var text string
	if kind == domain.KindPDF {
		text, err = f.fetchPDF(ctx, target)
	} else {
		text, err = f.fetchHTML(ctx, target)
	}
	if err != nil {
		return domain.FetchedContent{}, fmt.Errorf("fetch %s: %w", target, err)
	}

	return domain.FetchedContent{URL: target, Kind: kind, RawText: text}, nil
}

func (f *Fetcher) fetchHTML(ctx context.Context, target string) (string, error) {
	body, err := f.download(ctx, target, "text/html,application/xhtml+xml")
	if err != nil {
		return "", err
	}
	text, err := htmlContentText(body)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

func (f *Fetcher) fetchPDF(ctx context.Context, target string) (string, error) {
	data, err := f.download(ctx, target, "application/pdf,*/*")
	if err != nil {
		return "", err
	}

	type parsed struct {
		text string
		err  error
	}
	done := make(chan parsed, 1)
	go func() {
		text, err := f.parsePDF(data)
		done <- parsed{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("parse pdf: %w", res.err)
		}
		return acceptPDFText(res.text)
	case <-ctx.Done():
		return "", fmt.Errorf("parse pdf: %w", ctx.Err())
	}
}

func (f *Fetcher) download(ctx context.Context, target, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > f.opts.MaxBodyBytes {
		return nil, ErrBodyTooLong
	}
	return data, nil
}

// acceptPDFText normalises whitespace and rejects near-empty parses.
func acceptPDFText(text string) (string, error) {
	text = normalizeSpace(text)
	if len([]rune(text)) < MinPDFText {
		return "", ErrPDFTooShort
	}
	return text, nil
}

// sanitizeURL drops whitespace that leaks into links and requires an
// absolute http(s) URL.
func sanitizeURL(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	parsed, err := url.Parse(cleaned)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return parsed.String(), nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
