package agent

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Browser is the page the agent drives. Implementations keep one current
// page and a history for Back.
type Browser interface {
	// Navigate loads url and returns the HTTP status, or 0 when unknown.
	Navigate(ctx context.Context, url string) (int, error)
	// Back returns to the previous page and reports its URL.
	Back(ctx context.Context) (string, error)
	// URL returns the address of the current page.
	URL(ctx context.Context) (string, error)
	// HTML returns the current page's rendered markup.
	HTML(ctx context.Context) (string, error)
	// Click clicks the first element matching a CSS selector.
	Click(ctx context.Context, selector string) error
	Close() error
}

// Element is one match of get_elements.
type Element map[string]string

// PageText returns the visible text of a page: every text node, whitespace
// collapsed, joined by single spaces.
func PageText(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, iframe, svg, template").Remove()

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				parts = append(parts, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Find("body").Nodes {
		walk(n)
	}
	return strings.Join(parts, " "), nil
}

// PageLinks returns the unique absolute hyperlinks of a page in document order.
func PageLinks(page, base string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, err
	}
	var baseURL *url.URL
	if base != "" {
		baseURL, _ = url.Parse(base)
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		if baseURL != nil {
			u = baseURL.ResolveReference(u)
		}
		link := u.String()
		if !seen[link] {
			seen[link] = true
			links = append(links, link)
		}
	})
	return links, nil
}

// PageElements returns the requested attributes of every element matching
// selector. The pseudo-attribute "innerText" is the element's text.
func PageElements(page, selector string, attributes []string) ([]Element, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, err
	}
	if len(attributes) == 0 {
		attributes = []string{"innerText"}
	}

	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, &SelectorError{Selector: selector, Err: err}
	}

	var out []Element
	doc.FindMatcher(sel).Each(func(_ int, s *goquery.Selection) {
		el := make(Element, len(attributes))
		for _, attr := range attributes {
			if attr == "innerText" {
				el[attr] = strings.Join(strings.Fields(s.Text()), " ")
				continue
			}
			if v, ok := s.Attr(attr); ok {
				el[attr] = v
			}
		}
		out = append(out, el)
	})
	return out, nil
}

// SelectorError reports a CSS selector that could not be compiled.
type SelectorError struct {
	Selector string
	Err      error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid CSS selector %q: %v", e.Selector, e.Err)
}

func (e *SelectorError) Unwrap() error { return e.Err }
