package score

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed subjectivity.yaml
var subjectivityYAML []byte

// Lexicon maps lower-case words to a subjectivity weight in [0, 1]
type Lexicon map[string]float64

// ParseLexicon decodes a YAML word: weight mapping
func ParseLexicon(data []byte) (Lexicon, error) {
	var raw map[string]float64
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}

	lexicon := make(Lexicon, len(raw))
	for word, weight := range raw {
		if weight < 0 || weight > 1 {
			return nil, fmt.Errorf("parse lexicon: weight for %q out of range: %v", word, weight)
		}
		lexicon[strings.ToLower(word)] = weight
	}
	return lexicon, nil
}

var loadDefaultLexicon = sync.OnceValues(func() (Lexicon, error) {
	return ParseLexicon(subjectivityYAML)
})

// DefaultLexicon returns the embedded English subjectivity lexicon
func DefaultLexicon() (Lexicon, error) {
	return loadDefaultLexicon()
}
