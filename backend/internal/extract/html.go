package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLText strips markup from an HTML email body so HTML-only messages can
// still be embedded. Returns the input unchanged when parsing fails or the
// input has no markup worth stripping.
func HTMLText(html string) string {
	if !strings.Contains(html, "<") {
		return strings.TrimSpace(html)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}

	doc.Find("script, style, head").Remove()

	text := doc.Text()
	// Collapse runs of whitespace left behind by block elements
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}
