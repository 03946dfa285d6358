// Package assembler builds the response payload from the records that survived the gate.
package assembler

import "fjacquet/voice-ledger/internal/models"

// Assemble returns the final result. The record list is never nil and the
// suggestion is always present, with null fields when there is nothing to suggest.
func Assemble(records []models.NormalizedRecord, suggestion models.Suggestion, envelope models.Envelope) models.Result {
	if records == nil {
		records = []models.NormalizedRecord{}
	}
	if envelope == "" {
		envelope = models.EnvelopeTransactions
	}
	return models.Result{
		Envelope:     envelope,
		Transactions: records,
		Suggestion:   suggestion,
	}
}
