package usecase

import (
	"strings"

	"BookAnnotator/internal/domain"
)

const (
	htmlChunkSize   = 1500
	pdfChunkSize    = 3000
	scanWindow      = 8000
	markerWeight    = 5
	termWeight      = 2
	windowThreshold = 5
	padBefore       = 500
	padAfter        = 2000
	fallbackHead    = 20000
)

// Phrases that signal a text describes a book's purpose, audience or contents,
// in Kazakh and Russian.
var markerPhrases = []string{
	"оқу құралы", "оқу-әдістемелік", "әдістемелік құрал",
	"арналған", "қарастырылған", "мақсаты",
	"в пособии рассмотрен", "учебное пособие", "методическое пособие",
	"предназначено для", "описаны", "излагаются", "рассматриваются",
	"аннотация", "содержание", "для студентов",
}

// Extraction is the relevant slice of a source and the score of its best window.
type Extraction struct {
	Text        string
	WindowScore int
}

// ExtractRelevant scans text in chunk-sized steps, scores the window starting
// at each step and returns the best window with padding. When no window scores
// above the threshold the head of the text is returned instead.
func ExtractRelevant(text string, kind domain.SourceKind, terms RecordTerms) Extraction {
	original, lower := foldRunes(text)
	chunk := htmlChunkSize
	if kind == domain.KindPDF {
		chunk = pdfChunkSize
	}
	all := terms.All()

	bestStart, bestScore := 0, 0
	for i := 0; i < len(lower); i += chunk {
		end := min(i+scanWindow, len(lower))
		if score := scoreWindow(string(lower[i:end]), all); score > bestScore {
			bestStart, bestScore = i, score
		}
	}

	if bestScore > windowThreshold {
		start := max(0, bestStart-padBefore)
		end := min(len(original), bestStart+scanWindow+padAfter)
		return Extraction{Text: string(original[start:end]), WindowScore: bestScore}
	}

	end := min(len(original), fallbackHead)
	return Extraction{Text: string(original[:end]), WindowScore: bestScore}
}

func scoreWindow(window string, terms []string) int {
	score := 0
	for _, phrase := range markerPhrases {
		if strings.Contains(window, phrase) {
			score += markerWeight
		}
	}
	for _, term := range terms {
		if containsFold(window, term) {
			score += termWeight
		}
	}
	return score
}
