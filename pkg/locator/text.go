package locator

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Elements after which BlockText starts a new line.
var lineBreaking = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "header": true,
	"footer": true, "table": true, "thead": true, "tbody": true, "tr": true,
	"ul": true, "ol": true, "li": true, "br": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true,
}

// ownText returns the text of the selection's direct text children.
func ownText(s *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// BlockText flattens a selection to text, keeping one line per row or block
// element and separating table cells with a space. Runs of whitespace inside
// a line are collapsed.
func BlockText(s *goquery.Selection) string {
	var sb strings.Builder
	for _, n := range s.Nodes {
		writeText(&sb, n)
	}

	lines := strings.Split(sb.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}

	if n.Type == html.ElementNode {
		switch {
		case lineBreaking[n.Data]:
			sb.WriteByte('\n')
		case n.Data == "td" || n.Data == "th":
			sb.WriteByte(' ')
		}
	}
}
