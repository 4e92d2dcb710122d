package usecase

import (
	"sort"

	"BookAnnotator/internal/domain"
)

const (
	// DefaultMaxCandidates bounds how many sources are fetched per run.
	DefaultMaxCandidates = 15

	pdfWeight  = 3
	hintWeight = 2
)

// Hints that usually mark university and library hosts.
var trustedHints = []string{"edu", "library", "biblio", "университет", "ату", "қазату"}

// Prioritize orders discovered URLs (PDFs and trusted hosts first) and keeps
// at most limit entries. Equal weights keep discovery order.
func Prioritize(urls []string, limit int) []domain.CandidateSource {
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}

	type weighted struct {
		source domain.CandidateSource
		weight int
	}

	items := make([]weighted, 0, len(urls))
	for _, u := range urls {
		src := domain.CandidateSource{URL: u, Kind: domain.KindOf(u)}
		items = append(items, weighted{source: src, weight: priorityWeight(src)})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].weight > items[j].weight
	})

	if len(items) > limit {
		items = items[:limit]
	}

	out := make([]domain.CandidateSource, len(items))
	for i, it := range items {
		out[i] = it.source
	}
	return out
}

func priorityWeight(src domain.CandidateSource) int {
	weight := 0
	if src.Kind == domain.KindPDF {
		weight += pdfWeight
	}
	folded := foldURL(src.URL)
	for _, hint := range trustedHints {
		if containsFold(folded, hint) {
			weight += hintWeight
		}
	}
	return weight
}
