package cleaner

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TableCleaner keeps only the <table> elements of a page, dropping
// everything around them. Nested tables are kept once, inside their parent.
type TableCleaner struct{}

// NewTable creates a new table cleaner.
func NewTable() *TableCleaner {
	return &TableCleaner{}
}

// Clean returns an HTML document holding the page's top-level tables, or ""
// when the page has none.
func (c *TableCleaner) Clean(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	tables := doc.Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered("table").Length() == 0
	})
	if tables.Length() == 0 {
		return "", nil
	}

	tables.Find("script, style, noscript, svg, img").Remove()

	var sb strings.Builder
	sb.WriteString("<html><body>\n")
	tables.Each(func(_ int, s *goquery.Selection) {
		if h, err := goquery.OuterHtml(s); err == nil {
			sb.WriteString(h)
			sb.WriteString("\n")
		}
	})
	sb.WriteString("</body></html>")
	return sb.String(), nil
}

// Name returns the cleaner type.
func (c *TableCleaner) Name() string {
	return "table"
}
