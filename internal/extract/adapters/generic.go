package adapters

import "github.com/PuerkitoBio/goquery"

// GenericAdapter reads paragraphs inside <article>, falling back to every
// paragraph in the body
type GenericAdapter struct {
	BaseAdapter
}

// NewGenericAdapter creates the fallback adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

func (a *GenericAdapter) Name() string { return "generic" }

// CanHandle is always true
func (a *GenericAdapter) CanHandle(string, string) bool { return true }

func (a *GenericAdapter) Extract(doc *goquery.Document) Article {
	title := a.Title(doc)
	a.StripBoilerplate(doc)

	paras := a.Paragraphs(doc.Find("article p"))
	if len(paras) == 0 {
		paras = a.Paragraphs(doc.Find("main p"))
	}
	if len(paras) == 0 {
		paras = a.Paragraphs(doc.Find("body p"))
	}

	return Article{Title: title, Text: JoinParagraphs(paras)}
}
