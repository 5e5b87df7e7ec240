package score

import (
	"fmt"

	"github.com/ppiankov/truthledger/internal/model"
)

// Strategy names for score.strategy
const (
	StrategySimilarity = "similarity"
	StrategyKeyword    = "keyword"
)

// TruthScorer assigns a heuristic truth label to a claim.
// related holds the texts of the other articles in the batch.
type TruthScorer interface {
	Name() string
	Score(claim string, related []string) model.TruthLabel
}

// NewTruthScorer returns the scorer selected by cfg.Strategy
func NewTruthScorer(cfg model.ScoringConfig) (TruthScorer, error) {
	switch cfg.Strategy {
	case "", StrategySimilarity:
		return NewSimilarityScorer(cfg), nil
	case StrategyKeyword:
		return NewKeywordScorer(cfg.FalseWords, cfg.PartialWords), nil
	default:
		return nil, fmt.Errorf("unknown scoring strategy %q (available: %s, %s)", cfg.Strategy, StrategySimilarity, StrategyKeyword)
	}
}
