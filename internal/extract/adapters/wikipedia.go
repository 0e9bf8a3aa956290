package adapters

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// WikipediaAdapter reads the article body of Wikipedia pages without
// citation markers and edit links
type WikipediaAdapter struct {
	BaseAdapter
}

// NewWikipediaAdapter creates a Wikipedia adapter
func NewWikipediaAdapter() *WikipediaAdapter {
	return &WikipediaAdapter{}
}

func (a *WikipediaAdapter) Name() string { return "wikipedia" }

// CanHandle matches *.wikipedia.org hosts
func (a *WikipediaAdapter) CanHandle(rawURL string, contentType string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org")
}

func (a *WikipediaAdapter) Extract(doc *goquery.Document) Article {
	title := CollapseSpace(doc.Find("#firstHeading").First().Text())
	if title == "" {
		title = a.Title(doc)
	}

	a.StripBoilerplate(doc)
	content := doc.Find("#mw-content-text .mw-parser-output")
	content.Find("sup.reference, .mw-editsection, .reflist, table, .hatnote, .navbox").Remove()

	paras := a.Paragraphs(content.ChildrenFiltered("p"))
	if len(paras) == 0 {
		paras = a.Paragraphs(doc.Find("#mw-content-text p"))
	}

	return Article{Title: title, Text: JoinParagraphs(paras)}
}
