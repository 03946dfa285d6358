package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope is the top-level key records are returned under.
type Envelope string

const (
	EnvelopeTransactions Envelope = "transactions"
	EnvelopeActions      Envelope = "actions"
)

// ParseEnvelope defaults to EnvelopeTransactions for anything but "actions".
func ParseEnvelope(s string) Envelope {
	if strings.EqualFold(strings.TrimSpace(s), string(EnvelopeActions)) {
		return EnvelopeActions
	}
	return EnvelopeTransactions
}

// SuggestionCandidate is the model's untrusted top-level category suggestion.
type SuggestionCandidate struct {
	Category    *string         `json:"category"`
	Subcategory *string         `json:"subcategory"`
	Confidence  json.RawMessage `json:"confidence"`
}

// Suggestion is the category/subcategory suggestion returned to the caller.
// Both fields are null when absent or rejected.
type Suggestion struct {
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory"`
}

// Result is the response payload.
type Result struct {
	Envelope     Envelope
	Transactions []NormalizedRecord
	Suggestion   Suggestion
}

// MarshalJSON writes the records under the result's envelope key. The record
// list is never null.
func (r Result) MarshalJSON() ([]byte, error) {
	records := r.Transactions
	if records == nil {
		records = []NormalizedRecord{}
	}
	key := r.Envelope
	if key == "" {
		key = EnvelopeTransactions
	}
	return json.Marshal(map[string]any{
		string(key):  records,
		"suggestion": r.Suggestion,
	})
}

// VoiceRequest is what a caller sends: the message plus its entity catalog.
type VoiceRequest struct {
	Message  string
	Catalog  EntityCatalog
	Envelope Envelope
}

// UnmarshalJSON reads the message and envelope, and the catalog from the same
// top-level object.
func (r *VoiceRequest) UnmarshalJSON(data []byte) error {
	var head struct {
		Message  string `json:"message"`
		Envelope string `json:"envelope"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	var catalog EntityCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("decode catalog: %w", err)
	}
	r.Message = head.Message
	r.Envelope = ParseEnvelope(head.Envelope)
	r.Catalog = catalog
	return nil
}
