package score

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/truthledger/internal/model"
)

// BiasRater rates how opinionated an article reads
type BiasRater struct {
	lexicon       Lexicon
	biasWords     map[string]struct{}
	lowBelow      float64
	mediumBelow   float64
	minTextLength int
}

// NewBiasRater creates a bias rater backed by the embedded subjectivity lexicon
func NewBiasRater(cfg model.ScoringConfig) (*BiasRater, error) {
	lexicon, err := DefaultLexicon()
	if err != nil {
		return nil, err
	}
	return NewBiasRaterWithLexicon(cfg, lexicon), nil
}

// NewBiasRaterWithLexicon creates a bias rater with a caller-supplied lexicon
func NewBiasRaterWithLexicon(cfg model.ScoringConfig, lexicon Lexicon) *BiasRater {
	words := make(map[string]struct{}, len(cfg.BiasWords))
	for _, w := range lowerAll(cfg.BiasWords) {
		words[w] = struct{}{}
	}
	return &BiasRater{
		lexicon:       lexicon,
		biasWords:     words,
		lowBelow:      cfg.BiasLowBelow,
		mediumBelow:   cfg.BiasMediumBelow,
		minTextLength: cfg.BiasMinTextLength,
	}
}

// Rate returns Low, Medium or High. Texts too short to judge are Medium.
func (r *BiasRater) Rate(text string) model.BiasLabel {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < r.minTextLength {
		return model.BiasMedium
	}

	adjusted := r.Subjectivity(text) + r.BiasRatio(text)
	switch {
	case adjusted < r.lowBelow:
		return model.BiasLow
	case adjusted < r.mediumBelow:
		return model.BiasMedium
	default:
		return model.BiasHigh
	}
}

// Subjectivity is the mean lexicon subjectivity of the words in text, 0 if none are known
func (r *BiasRater) Subjectivity(text string) float64 {
	var sum float64
	matched := 0
	for _, tok := range Tokenize(text) {
		if s, ok := r.lexicon[tok]; ok {
			sum += s
			matched++
		}
	}
	if matched == 0 {
		return 0
	}
	return sum / float64(matched)
}

// BiasRatio is the share of whitespace-separated words that are bias words.
// Words must match exactly, so trailing punctuation prevents a match.
func (r *BiasRater) BiasRatio(text string) float64 {
	words := strings.Fields(strings.ToLower(text))
	count := 0
	for _, w := range words {
		if _, ok := r.biasWords[w]; ok {
			count++
		}
	}
	return float64(count) / float64(max(1, len(words)))
}
