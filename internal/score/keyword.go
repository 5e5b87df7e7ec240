package score

import (
	"strings"

	"github.com/ppiankov/truthledger/internal/model"
)

// KeywordScorer labels a claim by hedging and negation words it contains
type KeywordScorer struct {
	falseWords   []string
	partialWords []string
}

// NewKeywordScorer creates a keyword scorer. Words are matched as
// lower-cased substrings.
func NewKeywordScorer(falseWords, partialWords []string) *KeywordScorer {
	return &KeywordScorer{
		falseWords:   lowerAll(falseWords),
		partialWords: lowerAll(partialWords),
	}
}

// Name returns the strategy name
func (s *KeywordScorer) Name() string {
	return StrategyKeyword
}

// Score checks false words first, then partial words; anything else is True
func (s *KeywordScorer) Score(claim string, related []string) model.TruthLabel {
	lower := strings.ToLower(claim)
	if containsAny(lower, s.falseWords) {
		return model.TruthFalse
	}
	if containsAny(lower, s.partialWords) {
		return model.TruthPartial
	}
	return model.TruthTrue
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func lowerAll(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
