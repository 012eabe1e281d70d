package textnorm

import (
	"strings"

	"golang.org/x/net/html"
)

// hiddenElements never contribute rendered text.
var hiddenElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"svg":      {},
	"iframe":   {},
	"noscript": {},
	"template": {},
}

// VisibleText returns the normalized visible text of an HTML document.
// Script, style, svg, iframe, noscript and template subtrees and comments
// are dropped. An empty or unparseable document yields "".
//
// Design decision: We walk the golang.org/x/net/html tree rather than
// stripping tags with regular expressions because:
//  1. Malformed markup is repaired the way browsers repair it
//  2. Whole subtrees can be skipped without tracking nesting by hand
func VisibleText(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if _, hidden := hiddenElements[n.Data]; hidden {
				return
			}
		case html.TextNode:
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		case html.CommentNode:
			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return NormalizeText(b.String())
}
