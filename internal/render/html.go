package render

import (
	"strings"
	"unicode/utf8"

	xhtml "golang.org/x/net/html"
)

// HTMLToText flattens an HTML document, typically an error page from a proxy
// in front of an API, into readable text. Script, style and head content is
// dropped and whitespace is collapsed. The result is cut to maxLen bytes when
// maxLen > 0.
func HTMLToText(raw string, maxLen int) string {
	if raw == "" {
		return ""
	}

	tokenizer := xhtml.NewTokenizer(strings.NewReader(raw))
	var sb strings.Builder
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case xhtml.ErrorToken:
			return Truncate(strings.Join(strings.Fields(sb.String()), " "), maxLen)

		case xhtml.StartTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style", "head":
				skipDepth++
			case "p", "br", "div", "h1", "h2", "h3", "li", "tr":
				sb.WriteString(" ")
			}

		case xhtml.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "script", "style", "head":
				if skipDepth > 0 {
					skipDepth--
				}
			case "p", "div", "h1", "h2", "h3", "li", "tr", "td", "th":
				sb.WriteString(" ")
			}

		case xhtml.TextToken:
			if skipDepth == 0 {
				sb.Write(tokenizer.Text())
			}
		}
	}
}

// LooksLikeHTML reports whether body is probably an HTML document rather than
// JSON or plain text.
func LooksLikeHTML(contentType string, body []byte) bool {
	if strings.HasPrefix(strings.ToLower(contentType), "text/html") {
		return true
	}
	trimmed := strings.TrimSpace(string(body))
	return strings.HasPrefix(trimmed, "<")
}

// Truncate cuts s to at most maxLen bytes, backing off to a rune boundary,
// and marks the cut with "...". maxLen <= 0 disables the cut.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Wrap performs simple word wrapping to the given width.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	var result strings.Builder
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}
		lineLen := 0
		for i, word := range words {
			wlen := len(word)
			if i > 0 && lineLen+1+wlen > width {
				result.WriteString("\n")
				lineLen = 0
			} else if i > 0 {
				result.WriteString(" ")
				lineLen++
			}
			result.WriteString(word)
			lineLen += wlen
		}
		result.WriteString("\n")
	}
	return strings.TrimRight(result.String(), "\n")
}
