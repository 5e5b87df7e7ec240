package model

import "strings"

// Claim is a sentence fragment pulled out of an article before scoring
type Claim struct {
	Text     string `json:"text"`              // Trimmed fragment text
	Keyword  string `json:"keyword,omitempty"` // First trigger keyword that matched
	Sentence int    `json:"sentence"`          // Fragment index in the article text (0-based)
}

// TruthLabel is the coarse credibility label assigned to a claim
type TruthLabel string

const (
	TruthTrue    TruthLabel = "True"
	TruthPartial TruthLabel = "Partial"
	TruthFalse   TruthLabel = "False"
)

// CSSClass returns the dashboard class for the label
func (l TruthLabel) CSSClass() string {
	if l == "" {
		return strings.ToLower(string(TruthPartial))
	}
	return strings.ToLower(string(l))
}

// BiasLabel is the coarse subjectivity label assigned to an article
type BiasLabel string

const (
	BiasLow    BiasLabel = "Low"
	BiasMedium BiasLabel = "Medium"
	BiasHigh   BiasLabel = "High"
)

// CSSClass returns the dashboard class for the label
func (l BiasLabel) CSSClass() string {
	if l == "" {
		return strings.ToLower(string(BiasMedium))
	}
	return strings.ToLower(string(l))
}

// DefaultTitle is stored when an article has no <title>
const DefaultTitle = "Untitled Article"

// TimestampLayout is the stored timestamp format. It sorts lexically in
// chronological order, which ListClaims relies on.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// ClaimRecord is one row of the claims table
type ClaimRecord struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Claim      string     `json:"claim"`
	Source     string     `json:"source"`
	URL        string     `json:"url"`
	TruthScore TruthLabel `json:"truth_score"`
	BiasRating BiasLabel  `json:"bias_rating"`
	Timestamp  string     `json:"timestamp"`
}

// Normalize fills the defaults the table expects for missing fields
func (r *ClaimRecord) Normalize() {
	r.Claim = strings.TrimSpace(r.Claim)
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	if r.TruthScore == "" {
		r.TruthScore = TruthPartial
	}
	if r.BiasRating == "" {
		r.BiasRating = BiasMedium
	}
}
