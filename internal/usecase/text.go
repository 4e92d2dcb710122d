package usecase

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CollapseWhitespace replaces every whitespace run with one space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// foldRunes returns the NFC form of s and its rune-wise lowercase twin.
// Both slices have the same length so offsets found in one apply to the other.
func foldRunes(s string) (original, lower []rune) {
	original = []rune(norm.NFC.String(s))
	lower = make([]rune, len(original))
	for i, r := range original {
		lower[i] = unicode.ToLower(r)
	}
	return original, lower
}

func foldString(s string) string {
	_, lower := foldRunes(s)
	return string(lower)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// foldURL lowercases a URL and appends its percent-decoded form so that
// Cyrillic terms match encoded paths.
func foldURL(raw string) string {
	lower := foldString(raw)
	if decoded, err := url.PathUnescape(raw); err == nil && decoded != raw {
		return lower + " " + foldString(decoded)
	}
	return lower
}

// collapseRepeats removes back-to-back copies of any block of size runes,
// keeping the first copy. Pages that repeat their body (menus rendered twice,
// nested containers) would otherwise waste prompt space.
func collapseRepeats(s string, size int) string {
	runes := []rune(s)
	if size <= 0 || len(runes) < 2*size {
		return s
	}

	out := make([]rune, 0, len(runes))
	for i := 0; i < len(runes); {
		if i+2*size <= len(runes) && equalRunes(runes[i:i+size], runes[i+size:i+2*size]) {
			block := runes[i : i+size]
			j := i + size
			for j+size <= len(runes) && equalRunes(block, runes[j:j+size]) {
				j += size
			}
			out = append(out, block...)
			i = j
			continue
		}
		out = append(out, runes[i])
		i++
	}
	return string(out)
}

func equalRunes(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// containsFold reports whether an already folded haystack contains term.
func containsFold(folded, term string) bool {
	return term != "" && strings.Contains(folded, term)
}
