package service

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips markup from a feed summary and truncates it to max runes.
// A max of zero or less disables truncation.
func PlainText(html string, max int) string {
	text := html
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")

	if max > 0 {
		runes := []rune(text)
		if len(runes) > max {
			return strings.TrimSpace(string(runes[:max])) + "..."
		}
	}
	return text
}
