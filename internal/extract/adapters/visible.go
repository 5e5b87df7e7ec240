package adapters

import (
	"fmt"
	"strings"

	"github.com/ppiankov/truthledger/internal/model"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// VisibleAdapter collects every visible text node in the body
type VisibleAdapter struct{}

// NewVisibleAdapter creates a visible-text adapter
func NewVisibleAdapter() *VisibleAdapter {
	return &VisibleAdapter{}
}

// Name returns the adapter name
func (a *VisibleAdapter) Name() string {
	return StrategyVisible
}

// Extract walks the node tree and joins all text outside non-rendered elements
func (a *VisibleAdapter) Extract(htmlContent string, pageURL string) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	title := ""
	var parts []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if title == "" {
					title = CleanText(nodeText(n))
				}
				return
			case atom.Script, atom.Style, atom.Noscript, atom.Iframe, atom.Template, atom.Svg:
				return
			}
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if title == "" {
		title = model.DefaultTitle
	}

	return &Page{
		Title: title,
		Text:  CleanText(strings.Join(parts, " ")),
	}, nil
}

// nodeText concatenates the text nodes under n
func nodeText(n *html.Node) string {
	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			buf.WriteString(c.Data)
		} else {
			buf.WriteString(nodeText(c))
		}
	}
	return buf.String()
}
