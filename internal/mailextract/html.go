package mailextract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/invoflow/invoflow/internal/logger"
)

// looksLikeHTML reports whether a body is HTML markup rather than plain
// text. Plain-text bodies must pass through untouched, so the check is
// deliberately narrow.
func looksLikeHTML(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body")
}

// htmlToText reduces an HTML body to its text content so the pattern
// stages see plain text. On parse failure the body is returned unchanged.
func htmlToText(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		logger.Warn("failed to parse HTML email body, using raw text", "error", err)
		return body
	}
	return doc.Text()
}
