package fetch

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Containers that usually hold the main text of a page.
const contentSelector = "main, article, .content, .entry-content, .post-content, .description, .annotation, #content"

// htmlContentText returns the text of the outermost content containers, or
// the whole body when none of them carries text.
func htmlContentText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, template, svg").Remove()

	outer := doc.Find(contentSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered(contentSelector).Length() == 0
	})

	var parts []string
	outer.Each(func(_ int, s *goquery.Selection) {
		if text := normalizeSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) > 0 {
		return strings.Join(parts, " "), nil
	}

	return normalizeSpace(doc.Find("body").Text()), nil
}
