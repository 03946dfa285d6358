package models

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// ActionKind is the action the model proposes for one clause of the message.
type ActionKind string

const (
	ActionLogTransaction       ActionKind = "LOG_TRANSACTION"
	ActionObligationPayment    ActionKind = "OBLIGATION_PAYMENT"
	ActionTransfer             ActionKind = "TRANSFER"
	ActionRequestClarification ActionKind = "REQUEST_CLARIFICATION"
	ActionQueryState           ActionKind = "QUERY_STATE"
)

// ParseActionKind maps a raw action string onto a known kind.
// A missing action means a plain transaction log.
func ParseActionKind(s string) (ActionKind, bool) {
	switch k := ActionKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case "":
		return ActionLogTransaction, true
	case ActionLogTransaction, ActionObligationPayment, ActionTransfer,
		ActionRequestClarification, ActionQueryState:
		return k, true
	default:
		return "", false
	}
}

// TransactionType is the direction of money flow. TypeNone marshals as null.
type TransactionType string

const (
	TypeNone     TransactionType = ""
	TypeExpense  TransactionType = "expense"
	TypeIncome   TransactionType = "income"
	TypeTransfer TransactionType = "transfer"
)

// ParseTransactionType maps a raw type string onto a known type; anything
// unrecognised becomes TypeNone.
func ParseTransactionType(s string) TransactionType {
	switch t := TransactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeExpense, TypeIncome, TypeTransfer:
		return t
	default:
		return TypeNone
	}
}

// MarshalJSON writes TypeNone as null.
func (t TransactionType) MarshalJSON() ([]byte, error) {
	if t == TypeNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(t))
}

// UnmarshalJSON accepts null and unknown values as TypeNone.
func (t *TransactionType) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = TypeNone
		return nil
	}
	if s == nil {
		*t = TypeNone
		return nil
	}
	*t = ParseTransactionType(*s)
	return nil
}

// CandidateRecord is one untrusted action as decoded from the model reply.
// Empty string ids mean null. Confidence is kept raw because the model does
// not always send a number.
type CandidateRecord struct {
	Kind                 ActionKind
	Type                 TransactionType
	Amount               decimal.NullDecimal
	Currency             string
	CategoryID           string
	SubcategoryID        string
	SourceAccountID      string
	DestinationAccountID string
	RelatedID            string
	Confidence           json.RawMessage
	MentionsCredit       *bool
	MentionsLoan         *bool
	MentionsInstallment  *bool
	Note                 string
}

// NormalizedRecord is a record after normalization. Its flags and confidence
// are always concrete.
type NormalizedRecord struct {
	Kind                 ActionKind
	Type                 TransactionType
	Amount               decimal.NullDecimal
	Currency             string
	CategoryID           string
	SubcategoryID        string
	SourceAccountID      string
	DestinationAccountID string
	RelatedID            string
	Confidence           float64
	MentionsCredit       bool
	MentionsLoan         bool
	MentionsInstallment  bool
	Note                 string
}

// Reference is one non-null identifier carried by a record.
type Reference struct {
	Field string
	ID    string
}

// References returns the record's non-null ids in a fixed field order.
func (r NormalizedRecord) References() []Reference {
	all := []Reference{
		{Field: "sourceAccountId", ID: r.SourceAccountID},
		{Field: "destinationAccountId", ID: r.DestinationAccountID},
		{Field: "categoryId", ID: r.CategoryID},
		{Field: "subcategoryId", ID: r.SubcategoryID},
		{Field: "relatedId", ID: r.RelatedID},
	}
	refs := all[:0]
	for _, ref := range all {
		if ref.ID != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

type recordJSON struct {
	Action               ActionKind      `json:"action"`
	Type                 TransactionType `json:"type"`
	Amount               *json.Number    `json:"amount"`
	Currency             *string         `json:"currency"`
	CategoryID           *string         `json:"categoryId"`
	SubcategoryID        *string         `json:"subcategoryId"`
	SourceAccountID      *string         `json:"sourceAccountId"`
	DestinationAccountID *string         `json:"destinationAccountId"`
	RelatedID            *string         `json:"relatedId"`
	Confidence           float64         `json:"confidence"`
	MentionsCredit       bool            `json:"mentionsCredit"`
	MentionsLoan         bool            `json:"mentionsLoan"`
	MentionsInstallment  bool            `json:"mentionsInstallment"`
	Note                 string          `json:"note,omitempty"`
}

// MarshalJSON writes empty ids as null and the amount as a JSON number.
func (r NormalizedRecord) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Action:               r.Kind,
		Type:                 r.Type,
		Currency:             nullable(r.Currency),
		CategoryID:           nullable(r.CategoryID),
		SubcategoryID:        nullable(r.SubcategoryID),
		SourceAccountID:      nullable(r.SourceAccountID),
		DestinationAccountID: nullable(r.DestinationAccountID),
		RelatedID:            nullable(r.RelatedID),
		Confidence:           r.Confidence,
		MentionsCredit:       r.MentionsCredit,
		MentionsLoan:         r.MentionsLoan,
		MentionsInstallment:  r.MentionsInstallment,
		Note:                 r.Note,
	}
	if r.Amount.Valid {
		n := json.Number(r.Amount.Decimal.String())
		out.Amount = &n
	}
	return json.Marshal(out)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
