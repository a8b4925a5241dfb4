// Package htmlsanitize cleans user-authored HTML before it is relayed to
// other collaborators.
package htmlsanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var commentPolicy = newCommentPolicy()

// Mentions are rendered as <span data-user-id="..."> by the editor.
var objectIDPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

func newCommentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "strong", "b", "em", "i", "u", "s",
		"code", "pre", "blockquote", "ul", "ol", "li", "span",
	)
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AllowAttrs("data-user-id").Matching(objectIDPattern).OnElements("span")
	return p
}

// Comment sanitizes task comment content. Plain text is escaped and
// wrapped in a paragraph; HTML is filtered to inline formatting, lists,
// code and links. Leading and trailing whitespace is dropped.
func Comment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return PlainTextToHTML(s)
	}
	return strings.TrimSpace(commentPolicy.Sanitize(s))
}

// IsPlainText reports whether s contains no tag-like markup.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}

// PlainTextToHTML escapes s and converts newlines to <br>.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}
