package usecase

import "regexp"

// MinRelevance is the score a source must exceed to reach aggregation.
const MinRelevance = 3

var (
	educationalKeywords = []string{"оқу құралы", "әдістемелік", "учебно", "пособи", "методическ"}
	descriptiveLanguage = regexp.MustCompile(`оқу құралы|арналған|в пособии|предназначено|рассмотрен|описан`)
)

type termWeights struct {
	inURL  int
	inText int
}

var (
	authorWeights    = termWeights{inURL: 3, inText: 3}
	titleWeights     = termWeights{inURL: 2, inText: 3}
	publisherWeights = termWeights{inURL: 2, inText: 2}
)

const (
	yearBonus        = 3
	educationalBonus = 2
	descriptiveBonus = 5
)

// ScoreRelevance combines the extractor's window score with record-term
// overlap in the URL and text, the year, genre keywords and descriptive language.
func ScoreRelevance(sourceURL, text string, terms RecordTerms, windowScore int) int {
	folded := foldString(text)
	foldedURL := foldURL(sourceURL)

	score := windowScore
	score += overlap(terms.Authors, foldedURL, folded, authorWeights)
	score += overlap(terms.Title, foldedURL, folded, titleWeights)
	score += overlap(terms.Publishers, foldedURL, folded, publisherWeights)

	if containsFold(folded, terms.Year) {
		score += yearBonus
	}
	for _, kw := range educationalKeywords {
		if containsFold(folded, kw) {
			score += educationalBonus
		}
	}
	if descriptiveLanguage.MatchString(folded) {
		score += descriptiveBonus
	}
	return score
}

func overlap(terms []string, foldedURL, foldedText string, w termWeights) int {
	score := 0
	for _, term := range terms {
		if containsFold(foldedURL, term) {
			score += w.inURL
		}
		if containsFold(foldedText, term) {
			score += w.inText
		}
	}
	return score
}
