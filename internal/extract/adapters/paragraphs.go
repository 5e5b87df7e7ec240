package adapters

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/truthledger/internal/model"
)

// Strategy names accepted by Registry.Lookup
const (
	StrategyParagraphs  = "paragraphs"
	StrategyReadability = "readability"
	StrategyVisible     = "visible"
)

// DefaultMinParagraphLength drops captions, bylines and other short fragments
const DefaultMinParagraphLength = 15

// ParagraphAdapter joins the text of every <p> element
type ParagraphAdapter struct {
	minLength int
}

// NewParagraphAdapter creates a paragraph adapter
func NewParagraphAdapter(minLength int) *ParagraphAdapter {
	if minLength <= 0 {
		minLength = DefaultMinParagraphLength
	}
	return &ParagraphAdapter{minLength: minLength}
}

// Name returns the adapter name
func (a *ParagraphAdapter) Name() string {
	return StrategyParagraphs
}

// Extract returns the page title and the long-enough paragraphs joined by a space
func (a *ParagraphAdapter) Extract(htmlContent string, pageURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var paragraphs []string
	doc.Find("p").Each(func(i int, s *goquery.Selection) {
		text := paragraphText(s)
		if utf8.RuneCountInString(text) > a.minLength {
			paragraphs = append(paragraphs, text)
		}
	})

	return &Page{
		Title: documentTitle(doc),
		Text:  strings.Join(paragraphs, " "),
	}, nil
}

// paragraphText strips the inner markup of a paragraph, keeping escaped
// literals such as "&lt;name&gt;" as text
func paragraphText(s *goquery.Selection) string {
	inner, err := s.Html()
	if err != nil {
		return CleanText(s.Text())
	}
	return StripMarkup(inner)
}

// documentTitle returns the trimmed <title> text or the placeholder title
func documentTitle(doc *goquery.Document) string {
	title := CleanText(doc.Find("title").First().Text())
	if title == "" {
		return model.DefaultTitle
	}
	return title
}
