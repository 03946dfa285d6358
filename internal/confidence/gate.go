// Package confidence drops records and suggestions the model was not sure enough about.
package confidence

import (
	"encoding/json"

	"fjacquet/voice-ledger/internal/models"
)

const (
	// DefaultMinConfidence is the per-record threshold.
	DefaultMinConfidence = 0.7
	// DefaultSuggestionConfidence is the threshold for the top-level suggestion.
	DefaultSuggestionConfidence = 0.9
)

// Gate filters normalized records by confidence. It never fails: a record
// below the threshold is an expected outcome, not an error.
type Gate struct {
	MinConfidence        float64
	SuggestionConfidence float64
}

// NewGate creates a Gate. Out-of-range thresholds fall back to the defaults.
func NewGate(minConfidence, suggestionConfidence float64) *Gate {
	if minConfidence < 0 || minConfidence > 1 {
		minConfidence = DefaultMinConfidence
	}
	if suggestionConfidence < 0 || suggestionConfidence > 1 {
		suggestionConfidence = DefaultSuggestionConfidence
	}
	return &Gate{
		MinConfidence:        minConfidence,
		SuggestionConfidence: suggestionConfidence,
	}
}

// DefaultGate returns a Gate with the default thresholds.
func DefaultGate() *Gate {
	return NewGate(DefaultMinConfidence, DefaultSuggestionConfidence)
}

// Filter keeps records whose confidence is at least the threshold, in order,
// and reports how many were dropped.
func (g *Gate) Filter(records []models.NormalizedRecord) ([]models.NormalizedRecord, int) {
	kept := make([]models.NormalizedRecord, 0, len(records))
	for _, r := range records {
		if r.Confidence < g.MinConfidence {
			continue
		}
		kept = append(kept, r)
	}
	return kept, len(records) - len(kept)
}

// Suggestion turns the model's suggestion into the response form. A suggestion
// whose own confidence is below the suggestion threshold is nulled out; a
// confidence that is present but not a number counts as 0.5. A suggestion
// without any confidence passes through.
func (g *Gate) Suggestion(s *models.SuggestionCandidate) models.Suggestion {
	if s == nil {
		return models.Suggestion{}
	}
	if len(s.Confidence) > 0 && suggestionConfidence(s.Confidence) < g.SuggestionConfidence {
		return models.Suggestion{}
	}
	return models.Suggestion{
		Category:    nonEmpty(s.Category),
		Subcategory: nonEmpty(s.Subcategory),
	}
}

func suggestionConfidence(raw json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || string(raw) == "null" {
		return 0.5
	}
	return f
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
