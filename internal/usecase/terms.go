package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"BookAnnotator/internal/domain"
)

var (
	authorSplit = regexp.MustCompile(`[\s.]+`)
	wordSplit   = regexp.MustCompile(`\s+`)
)

// RecordTerms are the folded words used to recognise a record in free text.
type RecordTerms struct {
	Authors    []string
	Title      []string
	Publishers []string
	Year       string
}

// NewRecordTerms splits author words (>2 runes), title and publisher words
// (>3 runes) and keeps the year literal. Duplicates inside a group are dropped.
func NewRecordTerms(r domain.BibliographicRecord) RecordTerms {
	var authors []string
	authors = append(authors, splitTerms(r.Author, authorSplit, 2)...)
	authors = append(authors, splitTerms(r.OtherAuthors, authorSplit, 2)...)

	return RecordTerms{
		Authors:    dedupe(authors),
		Title:      dedupe(splitTerms(r.Title, wordSplit, 3)),
		Publishers: dedupe(splitTerms(r.Publisher, wordSplit, 3)),
		Year:       r.YearLiteral(),
	}
}

// All returns every distinct term, year included.
func (t RecordTerms) All() []string {
	all := make([]string, 0, len(t.Authors)+len(t.Title)+len(t.Publishers)+1)
	all = append(all, t.Authors...)
	all = append(all, t.Title...)
	all = append(all, t.Publishers...)
	if t.Year != "" {
		all = append(all, t.Year)
	}
	return dedupe(all)
}

func splitTerms(value string, sep *regexp.Regexp, minLen int) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range sep.Split(foldString(value), -1) {
		if utf8.RuneCountInString(part) > minLen {
			out = append(out, part)
		}
	}
	return out
}

func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
