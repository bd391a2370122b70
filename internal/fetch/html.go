// Package fetch retrieves web pages and converts them to readable text for
// the extract stage.
package fetch

import (
	"strings"

	"golang.org/x/net/html"
)

// skippedElements are stripped entirely: their text is boilerplate, not
// article content.
var skippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"nav":      {},
	"footer":   {},
	"aside":    {},
	"noscript": {},
	"iframe":   {},
}

// blockElements force a line break between their text and what follows.
var blockElements = map[string]struct{}{
	"p": {}, "div": {}, "section": {}, "article": {}, "br": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"li": {}, "tr": {}, "blockquote": {}, "pre": {},
}

// ExtractText parses HTML and returns its visible text with script, style,
// and page-chrome elements removed and whitespace collapsed.
func ExtractText(src string) (string, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	collectText(root, &b)
	return collapseWhitespace(b.String()), nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		if _, skip := skippedElements[n.Data]; skip {
			return
		}
		if _, block := blockElements[n.Data]; block {
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
	if n.Type == html.ElementNode {
		if _, block := blockElements[n.Data]; block {
			b.WriteString("\n")
		}
	}
}

// collapseWhitespace normalizes runs of spaces within lines and drops empty
// lines, so extracted text is stable regardless of source formatting.
func collapseWhitespace(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
