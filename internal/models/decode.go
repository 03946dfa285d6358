package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"fjacquet/voice-ledger/internal/currencyutils"

	"github.com/shopspring/decimal"
)

// Extraction is the decoded model reply: the candidate records plus an
// optional category suggestion, and the key the records arrived under.
type Extraction struct {
	Envelope   Envelope
	Candidates []CandidateRecord
	Suggestion *SuggestionCandidate
}

// candidateWire is the loose shape the model is asked to produce.
type candidateWire struct {
	Action               string          `json:"action"`
	Kind                 string          `json:"kind"`
	Type                 TransactionType `json:"type"`
	Amount               json.RawMessage `json:"amount"`
	Currency             *string         `json:"currency"`
	CategoryID           *string         `json:"categoryId"`
	SubcategoryID        *string         `json:"subcategoryId"`
	SourceAccountID      *string         `json:"sourceAccountId"`
	DestinationAccountID *string         `json:"destinationAccountId"`
	RelatedID            *string         `json:"relatedId"`
	Confidence           json.RawMessage `json:"confidence"`
	MentionsCredit       json.RawMessage `json:"mentionsCredit"`
	MentionsLoan         json.RawMessage `json:"mentionsLoan"`
	MentionsInstallment  json.RawMessage `json:"mentionsInstallment"`
	Note                 string          `json:"note"`
	Item                 string          `json:"item"`
}

type envelopeWire struct {
	Actions      json.RawMessage      `json:"actions"`
	Transactions json.RawMessage      `json:"transactions"`
	Suggestion   *SuggestionCandidate `json:"suggestion"`
}

// DecodeExtraction decodes an already-extracted JSON payload. It accepts
// {"actions": [...]}, {"transactions": [...]}, a bare array or a single
// record object. Unknown action kinds reject the whole payload.
func DecodeExtraction(payload []byte) (*Extraction, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	ex := &Extraction{Envelope: EnvelopeTransactions}
	var items json.RawMessage

	switch trimmed[0] {
	case '[':
		items = trimmed
	case '{':
		var env envelopeWire
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		ex.Suggestion = env.Suggestion
		switch {
		case isPresent(env.Actions):
			items = env.Actions
			ex.Envelope = EnvelopeActions
		case isPresent(env.Transactions):
			items = env.Transactions
		case looksLikeRecord(trimmed):
			items = append(append([]byte{'['}, trimmed...), ']')
		}
	default:
		return nil, fmt.Errorf("payload is neither an object nor an array")
	}

	if items == nil {
		ex.Candidates = []CandidateRecord{}
		return ex, nil
	}

	var wires []candidateWire
	if err := json.Unmarshal(items, &wires); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	ex.Candidates = make([]CandidateRecord, 0, len(wires))
	for i, w := range wires {
		rec, err := w.toCandidate()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		ex.Candidates = append(ex.Candidates, rec)
	}
	return ex, nil
}

func (w candidateWire) toCandidate() (CandidateRecord, error) {
	rawKind := w.Action
	if rawKind == "" {
		rawKind = w.Kind
	}
	kind, ok := ParseActionKind(rawKind)
	if !ok {
		return CandidateRecord{}, fmt.Errorf("unknown action '%s'", rawKind)
	}

	note := w.Note
	if note == "" {
		note = w.Item
	}

	return CandidateRecord{
		Kind:                 kind,
		Type:                 w.Type,
		Amount:               parseAmount(w.Amount),
		Currency:             deref(w.Currency),
		CategoryID:           deref(w.CategoryID),
		SubcategoryID:        deref(w.SubcategoryID),
		SourceAccountID:      deref(w.SourceAccountID),
		DestinationAccountID: deref(w.DestinationAccountID),
		RelatedID:            deref(w.RelatedID),
		Confidence:           w.Confidence,
		MentionsCredit:       parseFlag(w.MentionsCredit),
		MentionsLoan:         parseFlag(w.MentionsLoan),
		MentionsInstallment:  parseFlag(w.MentionsInstallment),
		Note:                 note,
	}, nil
}

// parseAmount reads a JSON number or a numeric string such as "1,250" or
// "EGP 300"; anything else is null.
func parseAmount(raw json.RawMessage) decimal.NullDecimal {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.NullDecimal{}
	}

	var (
		d   decimal.Decimal
		err error
	)
	if strings.HasPrefix(s, `"`) {
		var text string
		if err = json.Unmarshal(raw, &text); err != nil {
			return decimal.NullDecimal{}
		}
		d, err = currencyutils.ParseAmount(text)
	} else {
		d, err = decimal.NewFromString(s)
	}
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// parseFlag reads a JSON boolean or the strings "true"/"false". Anything
// else counts as missing.
func parseFlag(raw json.RawMessage) *bool {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return &b
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		return nil
	}
	return &b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func isPresent(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s != "" && s != "null"
}

// looksLikeRecord reports whether a top-level object is itself a single record.
func looksLikeRecord(obj []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return false
	}
	for _, key := range []string{"type", "action", "kind", "amount"} {
		if _, ok := fields[key]; ok {
			return true
		}
	}
	return false
}
