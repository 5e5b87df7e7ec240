package adapters

import (
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
)

// ReadabilityAdapter extracts the main article body with go-readability.
// When readability finds nothing the paragraph adapter's result is used.
type ReadabilityAdapter struct {
	fallback *ParagraphAdapter
}

// NewReadabilityAdapter creates a readability adapter
func NewReadabilityAdapter(fallback *ParagraphAdapter) *ReadabilityAdapter {
	if fallback == nil {
		fallback = NewParagraphAdapter(0)
	}
	return &ReadabilityAdapter{fallback: fallback}
}

// Name returns the adapter name
func (a *ReadabilityAdapter) Name() string {
	return StrategyReadability
}

// Extract returns the readability text, keeping the <title> from the document
func (a *ReadabilityAdapter) Extract(htmlContent string, pageURL string) (*Page, error) {
	page, err := a.fallback.Extract(htmlContent, pageURL)
	if err != nil {
		return nil, err
	}

	if text := readableText(htmlContent, pageURL); text != "" {
		page.Text = text
	}
	return page, nil
}

// readableText returns the cleaned main-content text, or "" when extraction fails
func readableText(htmlContent string, pageURL string) string {
	var base *url.URL
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		base = u
	}

	article, err := readability.FromReader(strings.NewReader(htmlContent), base)
	if err != nil {
		return ""
	}

	var buf strings.Builder
	if err := article.RenderText(&buf); err != nil {
		return ""
	}
	return CleanText(buf.String())
}
