package index

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

var (
	commentRe = regexp.MustCompile(`(?s)<!--.*?-->`)
	scriptRe  = regexp.MustCompile(`(?is)<script\b.*?</script>`)
	styleRe   = regexp.MustCompile(`(?is)<style\b.*?</style>`)
	tagRe     = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// Clean turns raw stored content into plain searchable text: markup and
// script/style/comment blocks are removed, entities decoded and whitespace
// collapsed. Full HTML documents go through a readability pass first so
// navigation chrome does not pollute the index.
func Clean(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if looksLikeFullDocument(raw) {
		if text, ok := extractArticleText(raw); ok {
			raw = text
		}
	}
	s := commentRe.ReplaceAllString(raw, " ")
	s = scriptRe.ReplaceAllString(s, " ")
	s = styleRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func looksLikeFullDocument(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body")
}

func extractArticleText(raw string) (string, bool) {
	base, _ := url.Parse("https://localhost/")
	article, err := readability.FromReader(strings.NewReader(raw), base)
	if err != nil || strings.TrimSpace(article.TextContent) == "" {
		return "", false
	}
	return article.TextContent, true
}
