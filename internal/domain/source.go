package domain

import (
	"net/url"
	"strings"
)

// SourceKind selects the fetch strategy for a discovered URL.
type SourceKind string

const (
	KindHTML SourceKind = "html"
	KindPDF  SourceKind = "pdf"
)

// KindOf infers the content kind from the URL suffix.
func KindOf(rawURL string) SourceKind {
	lower := strings.ToLower(strings.TrimSpace(rawURL))
	if strings.HasSuffix(lower, ".pdf") {
		return KindPDF
	}
	if u, err := url.Parse(lower); err == nil && strings.HasSuffix(u.Path, ".pdf") {
		return KindPDF
	}
	return KindHTML
}

// CandidateSource is a URL selected for fetching.
type CandidateSource struct {
	URL  string
	Kind SourceKind
}

// FetchedContent is the normalised text of a single source.
type FetchedContent struct {
	URL     string
	Kind    SourceKind
	RawText string
}

// ScoredSource is a fetched source reduced to its most relevant window.
type ScoredSource struct {
	URL    string
	Kind   SourceKind
	Window string
	Score  int
}
