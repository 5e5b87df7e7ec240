package score

import (
	"github.com/ppiankov/truthledger/internal/model"
)

// SimilarityScorer labels a claim by how many related texts resemble it
type SimilarityScorer struct {
	threshold        float64
	trueAgreement    float64
	partialAgreement float64
}

// NewSimilarityScorer creates a similarity scorer from the scoring thresholds
func NewSimilarityScorer(cfg model.ScoringConfig) *SimilarityScorer {
	return &SimilarityScorer{
		threshold:        cfg.SimilarityThreshold,
		trueAgreement:    cfg.TrueAgreement,
		partialAgreement: cfg.PartialAgreement,
	}
}

// Name returns the strategy name
func (s *SimilarityScorer) Name() string {
	return StrategySimilarity
}

// Score returns True, Partial or False based on the agreement fraction.
// With no related texts there is nothing to compare and the result is Partial.
func (s *SimilarityScorer) Score(claim string, related []string) model.TruthLabel {
	if len(related) == 0 {
		return model.TruthPartial
	}

	agree := s.Agreement(claim, related)
	switch {
	case agree > s.trueAgreement:
		return model.TruthTrue
	case agree > s.partialAgreement:
		return model.TruthPartial
	default:
		return model.TruthFalse
	}
}

// Agreement returns the fraction of related texts whose cosine similarity
// to the claim exceeds the threshold
func (s *SimilarityScorer) Agreement(claim string, related []string) float64 {
	if len(related) == 0 {
		return 0
	}

	docs := make([]string, 0, len(related)+1)
	docs = append(docs, claim)
	docs = append(docs, related...)
	vectors := TFIDF(docs)

	agreeing := 0
	for _, v := range vectors[1:] {
		if Cosine(vectors[0], v) > s.threshold {
			agreeing++
		}
	}
	return float64(agreeing) / float64(len(related))
}
