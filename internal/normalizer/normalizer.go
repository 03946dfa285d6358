// Package normalizer repairs directionally inconsistent candidate records
// using fixed business rules. It never rejects a record.
package normalizer

import (
	"encoding/json"

	"fjacquet/voice-ledger/internal/models"
)

const (
	// DefaultConfidence replaces a confidence the model did not send as a number.
	DefaultConfidence = 0.5
	// MaxConfidence is the highest confidence the service ever reports.
	MaxConfidence = 0.95
)

// Normalize applies the rules below, in order. Later rules override earlier
// ones; the credit-card rule in particular beats every default-account fallback.
//
//  1. amount becomes its absolute value
//  2. income has no source; its destination defaults to the default account
//  3. expense has no destination; its source defaults to the default account
//  4. transfer source defaults to the default account (destination is left alone)
//  5. obligation payment source defaults to the default account
//  6. a record mentioning credit keeps a source only if it is a known card
//  7. missing mention flags become false
//  8. non-numeric confidence becomes 0.5, and anything >= 1 becomes 0.95
func Normalize(catalog *models.EntityCatalog, c models.CandidateRecord) models.NormalizedRecord {
	r := models.NormalizedRecord{
		Kind:                 c.Kind,
		Type:                 c.Type,
		Amount:               c.Amount,
		Currency:             c.Currency,
		CategoryID:           c.CategoryID,
		SubcategoryID:        c.SubcategoryID,
		SourceAccountID:      c.SourceAccountID,
		DestinationAccountID: c.DestinationAccountID,
		RelatedID:            c.RelatedID,
		Note:                 c.Note,
	}
	defaultAccount := catalog.DefaultAccount()

	if r.Amount.Valid {
		r.Amount.Decimal = r.Amount.Decimal.Abs()
	}

	switch r.Type {
	case models.TypeIncome:
		r.SourceAccountID = ""
		if r.DestinationAccountID == "" {
			r.DestinationAccountID = defaultAccount
		}
	case models.TypeExpense:
		r.DestinationAccountID = ""
		if r.SourceAccountID == "" {
			r.SourceAccountID = defaultAccount
		}
	case models.TypeTransfer:
		if r.SourceAccountID == "" {
			r.SourceAccountID = defaultAccount
		}
	}

	if r.Kind == models.ActionObligationPayment && r.SourceAccountID == "" {
		r.SourceAccountID = defaultAccount
	}

	r.MentionsCredit = flag(c.MentionsCredit)
	r.MentionsLoan = flag(c.MentionsLoan)
	r.MentionsInstallment = flag(c.MentionsInstallment)

	if r.MentionsCredit && !catalog.IsCreditCard(r.SourceAccountID) {
		r.SourceAccountID = ""
	}

	r.Confidence = coerceConfidence(c.Confidence)
	return r
}

// NormalizeAll normalizes a batch, preserving order.
func NormalizeAll(catalog *models.EntityCatalog, candidates []models.CandidateRecord) []models.NormalizedRecord {
	out := make([]models.NormalizedRecord, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Normalize(catalog, c))
	}
	return out
}

// NeedsDestination reports a transfer that still has no destination after
// normalization. Such records are left as they are.
func NeedsDestination(r models.NormalizedRecord) bool {
	return r.Type == models.TypeTransfer && r.DestinationAccountID == ""
}

func flag(b *bool) bool {
	return b != nil && *b
}

func coerceConfidence(raw json.RawMessage) float64 {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return DefaultConfidence
	}
	f, ok := v.(float64)
	if !ok {
		return DefaultConfidence
	}
	switch {
	case f >= 1.0:
		return MaxConfidence
	case f < 0:
		return 0
	default:
		return f
	}
}
