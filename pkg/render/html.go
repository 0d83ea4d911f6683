// Package render turns model Markdown into the HTML subset Telegram accepts.
package render

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/russross/blackfriday"
)

// MaxMessageLength is Telegram's limit for a single text message, in runes.
const MaxMessageLength = 4096

var (
	headingRe   = regexp.MustCompile(`(?s)<h[1-6][^>]*>(.*?)</h[1-6]>`)
	listItemRe  = regexp.MustCompile(`(?s)<li>(.*?)</li>`)
	preCodeRe   = regexp.MustCompile(`(?s)<pre><code[^>]*>`)
	unknownTag  = regexp.MustCompile(`</?(p|ul|ol|div|span|table|thead|tbody|tr|td|th|img|hr|br)( [^>]*)?/?>`)
	blankLinesR = regexp.MustCompile(`\n{3,}`)
	anyTag      = regexp.MustCompile(`<[^>]*>`)
)

var tagReplacer = strings.NewReplacer(
	"<strong>", "<b>", "</strong>", "</b>",
	"<em>", "<i>", "</em>", "</i>",
	"<del>", "<s>", "</del>", "</s>",
)

// ToHTML converts Markdown to Telegram HTML: headings become bold lines,
// list items become bullets, unsupported block tags are dropped.
func ToHTML(markdown string) string {
	out := string(blackfriday.MarkdownCommon([]byte(markdown)))

	out = headingRe.ReplaceAllString(out, "<b>$1</b>\n")
	out = listItemRe.ReplaceAllString(out, "• $1")
	out = preCodeRe.ReplaceAllString(out, "<pre>")
	out = strings.ReplaceAll(out, "</code></pre>", "</pre>")
	out = tagReplacer.Replace(out)
	out = unknownTag.ReplaceAllString(out, "")
	out = blankLinesR.ReplaceAllString(out, "\n\n")

	return strings.TrimSpace(out)
}

// PlainText strips the markup ToHTML produces, for clients that reject it.
func PlainText(s string) string {
	return html.UnescapeString(anyTag.ReplaceAllString(s, ""))
}

// Split cuts text into chunks of at most limit runes, preferring line breaks.
func Split(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLength
	}

	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		cut := cutIndex(text, limit)
		chunks = append(chunks, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" || len(chunks) == 0 {
		chunks = append(chunks, text)
	}
	return chunks
}

// cutIndex returns a byte offset within the first limit runes, at the last newline if there is one.
func cutIndex(text string, limit int) int {
	byteLimit := len(text)
	n := 0
	for i := range text {
		if n == limit {
			byteLimit = i
			break
		}
		n++
	}

	if nl := strings.LastIndex(text[:byteLimit], "\n"); nl > 0 {
		return nl + 1
	}
	return byteLimit
}
