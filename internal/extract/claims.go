package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/truthledger/internal/model"
)

// DefaultKeywords are the trigger words that mark a fragment as a claim
var DefaultKeywords = []string{"will", "plan", "promise", "said", "report"}

// DefaultMinLength is the exclusive lower bound on fragment length
const DefaultMinLength = 15

// ClaimExtractor extracts claims from article text
type ClaimExtractor struct {
	keywords  []string
	minLength int
}

// NewClaimExtractor creates a claim extractor.
// Empty keywords or a non-positive minLength fall back to the defaults.
func NewClaimExtractor(keywords []string, minLength int) *ClaimExtractor {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	if minLength <= 0 {
		minLength = DefaultMinLength
	}

	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}

	return &ClaimExtractor{
		keywords:  lowered,
		minLength: minLength,
	}
}

// Extract splits text into fragments and keeps the ones that look like claims
func (e *ClaimExtractor) Extract(text string) []model.Claim {
	var claims []model.Claim

	for i, fragment := range e.SplitSentences(text) {
		lower := strings.ToLower(fragment)
		for _, keyword := range e.keywords {
			if strings.Contains(lower, keyword) {
				claims = append(claims, model.Claim{
					Text:     fragment,
					Keyword:  keyword,
					Sentence: i,
				})
				break // Only match once per fragment
			}
		}
	}

	return claims
}

// SplitSentences splits on '.' and drops fragments that are too short.
// Returned fragments are trimmed.
func (e *ClaimExtractor) SplitSentences(text string) []string {
	var sentences []string
	for _, part := range strings.Split(text, ".") {
		part = strings.TrimSpace(part)
		if utf8.RuneCountInString(part) > e.minLength {
			sentences = append(sentences, part)
		}
	}
	return sentences
}
