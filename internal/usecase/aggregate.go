package usecase

import (
	"sort"
	"strings"

	"BookAnnotator/internal/domain"
)

const (
	maxAggregatedSources = 5
	perSourceLimit       = 10000
	combinedLimit        = 40000
	sourceSeparator      = "\n\n"
)

// Aggregate drops sources at or below MinRelevance, keeps the five best and
// concatenates their windows within the per-source and total limits.
func Aggregate(sources []domain.ScoredSource) (string, []domain.ScoredSource, error) {
	kept := make([]domain.ScoredSource, 0, len(sources))
	for _, s := range sources {
		if s.Score > MinRelevance {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return "", nil, ErrNoRelevantSource
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	if len(kept) > maxAggregatedSources {
		kept = kept[:maxAggregatedSources]
	}

	parts := make([]string, len(kept))
	for i, s := range kept {
		parts[i] = truncateRunes(s.Window, perSourceLimit)
	}
	combined := truncateRunes(strings.Join(parts, sourceSeparator), combinedLimit)

	return combined, kept, nil
}
