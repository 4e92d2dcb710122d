package usecase

import (
	"strings"

	"BookAnnotator/internal/domain"
)

// MaxQueries is the most search queries one record produces.
const MaxQueries = 5

// BuildQueries derives the ordered search queries for a record. Absent fields
// drop the query that needs them instead of leaving an empty token.
func BuildQueries(r domain.BibliographicRecord) ([]string, error) {
	if !r.HasAuthor() && !r.HasTitle() {
		return nil, ErrInsufficientMetadata
	}

	title := strings.TrimSpace(r.Title)
	author := r.PrimaryAuthor()
	publisher := strings.TrimSpace(r.Publisher)
	keywords := strings.TrimSpace(r.Keywords)
	year := r.YearLiteral()

	var candidates [][]string
	if title != "" {
		candidates = [][]string{
			{title, year},
			{author, title},
			{publisher, title},
			{title},
			{title, keywords},
		}
	} else {
		candidates = [][]string{
			{author, keywords},
			{author, publisher},
			{author},
		}
	}

	queries := make([]string, 0, MaxQueries)
	seen := map[string]struct{}{}
	for _, parts := range candidates {
		q, ok := joinAll(parts)
		if !ok {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
		if len(queries) == MaxQueries {
			break
		}
	}

	return queries, nil
}

// joinAll joins parts with spaces; it fails when any part is empty.
func joinAll(parts []string) (string, bool) {
	for _, p := range parts {
		if p == "" {
			return "", false
		}
	}
	return strings.Join(parts, " "), true
}
