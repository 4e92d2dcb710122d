package domain

import (
	"strconv"
	"strings"
)

// BibliographicRecord is a catalog entry as supplied by the library database.
// Empty strings and a zero Year mean the field is absent.
type BibliographicRecord struct {
	ID                int64
	Author            string
	OtherAuthors      string
	Title             string
	TitleContinuation string
	PublicationPlace  string
	Publisher         string
	Year              int
	YearDigits        string
	ISBN              string
	Keywords          string
}

// HasAuthor reports whether any author field is present.
func (r BibliographicRecord) HasAuthor() bool {
	return strings.TrimSpace(r.Author) != "" || strings.TrimSpace(r.OtherAuthors) != ""
}

// HasTitle reports whether the record carries a title.
func (r BibliographicRecord) HasTitle() bool {
	return strings.TrimSpace(r.Title) != ""
}

// PrimaryAuthor returns the main author, falling back to co-authors.
func (r BibliographicRecord) PrimaryAuthor() string {
	if a := strings.TrimSpace(r.Author); a != "" {
		return a
	}
	return strings.TrimSpace(r.OtherAuthors)
}

// YearLiteral is the publication year as printed in search queries and texts.
func (r BibliographicRecord) YearLiteral() string {
	if r.Year > 0 {
		return strconv.Itoa(r.Year)
	}
	return strings.TrimSpace(r.YearDigits)
}
