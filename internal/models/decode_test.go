package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeExtraction_Envelopes(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		envelope  Envelope
		count     int
		suggested bool
	}{
		{
			name:     "actions envelope",
			payload:  `{"actions": [{"action": "LOG_TRANSACTION", "type": "expense", "amount": 50, "confidence": 0.8}]}`,
			envelope: EnvelopeActions,
			count:    1,
		},
		{
			name:      "transactions envelope with suggestion",
			payload:   `{"transactions": [{"type": "income", "amount": 1000}, {"type": "expense", "amount": 20}], "suggestion": {"category": "Food", "subcategory": null, "confidence": 0.95}}`,
			envelope:  EnvelopeTransactions,
			count:     2,
			suggested: true,
		},
		{
			name:     "bare array",
			payload:  `[{"type": "expense", "amount": 200, "item": "lunch"}]`,
			envelope: EnvelopeTransactions,
			count:    1,
		},
		{
			name:     "single record object",
			payload:  `{"type": "transfer", "amount": 100}`,
			envelope: EnvelopeTransactions,
			count:    1,
		},
		{
			name:     "empty actions",
			payload:  `{"actions": []}`,
			envelope: EnvelopeActions,
			count:    0,
		},
		{
			name:     "object without records",
			payload:  `{"message": "nothing found"}`,
			envelope: EnvelopeTransactions,
			count:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := DecodeExtraction([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.envelope, ex.Envelope)
			assert.Len(t, ex.Candidates, tt.count)
			assert.NotNil(t, ex.Candidates)
			assert.Equal(t, tt.suggested, ex.Suggestion != nil)
		})
	}
}

func TestDecodeExtraction_Fields(t *testing.T) {
	payload := `{"actions": [{
		"action": "obligation_payment",
		"type": "EXPENSE",
		"amount": "-1500.50",
		"currency": "EGP",
		"categoryId": null,
		"subcategoryId": "",
		"sourceAccountId": " A1 ",
		"destinationAccountId": null,
		"relatedId": "L1",
		"confidence": "high",
		"mentionsLoan": true
	}]}`

	ex, err := DecodeExtraction([]byte(payload))
	require.NoError(t, err)
	require.Len(t, ex.Candidates, 1)

	c := ex.Candidates[0]
	assert.Equal(t, ActionObligationPayment, c.Kind)
	assert.Equal(t, TypeExpense, c.Type)
	require.True(t, c.Amount.Valid)
	assert.True(t, c.Amount.Decimal.Equal(decimal.RequireFromString("-1500.50")))
	assert.Equal(t, "EGP", c.Currency)
	assert.Equal(t, "", c.CategoryID)
	assert.Equal(t, "", c.SubcategoryID)
	assert.Equal(t, "A1", c.SourceAccountID)
	assert.Equal(t, "L1", c.RelatedID)
	assert.JSONEq(t, `"high"`, string(c.Confidence))
	require.NotNil(t, c.MentionsLoan)
	assert.True(t, *c.MentionsLoan)
	assert.Nil(t, c.MentionsCredit)
}

func TestDecodeExtraction_LooseValues(t *testing.T) {
	payload := `[
		{"kind": "TRANSFER", "type": "sideways", "amount": "two hundred"},
		{"type": null, "amount": null},
		{"type": "income"}
	]`

	ex, err := DecodeExtraction([]byte(payload))
	require.NoError(t, err)
	require.Len(t, ex.Candidates, 3)

	assert.Equal(t, ActionTransfer, ex.Candidates[0].Kind)
	assert.Equal(t, TypeNone, ex.Candidates[0].Type)
	assert.False(t, ex.Candidates[0].Amount.Valid)

	assert.Equal(t, ActionLogTransaction, ex.Candidates[1].Kind)
	assert.Equal(t, TypeNone, ex.Candidates[1].Type)
	assert.False(t, ex.Candidates[1].Amount.Valid)

	assert.False(t, ex.Candidates[2].Amount.Valid)
	assert.Nil(t, ex.Candidates[2].Confidence)
}

func TestDecodeExtraction_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", "   "},
		{"scalar", `"hello"`},
		{"unknown action", `{"actions": [{"action": "DELETE_EVERYTHING"}]}`},
		{"records not a list", `{"actions": {"type": "expense"}}`},
		{"broken json", `{"actions": [`},
		{"id of wrong type", `[{"type": "expense", "sourceAccountId": 42}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeExtraction([]byte(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestTransactionType_JSON(t *testing.T) {
	out, err := json.Marshal(struct {
		A TransactionType `json:"a"`
		B TransactionType `json:"b"`
	}{A: TypeIncome, B: TypeNone})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": "income", "b": null}`, string(out))
}

func TestParseActionKind(t *testing.T) {
	k, ok := ParseActionKind(" query_state ")
	assert.True(t, ok)
	assert.Equal(t, ActionQueryState, k)

	k, ok = ParseActionKind("")
	assert.True(t, ok)
	assert.Equal(t, ActionLogTransaction, k)

	_, ok = ParseActionKind("SELL")
	assert.False(t, ok)
}

func TestDecodeExtraction_FormattedAmounts(t *testing.T) {
	payload := `[
		{"type": "expense", "amount": "1,250.75"},
		{"type": "expense", "amount": "EGP 300"},
		{"type": "income", "amount": 1e3}
	]`

	ex, err := DecodeExtraction([]byte(payload))
	require.NoError(t, err)
	require.Len(t, ex.Candidates, 3)

	for i, want := range []string{"1250.75", "300", "1000"} {
		require.True(t, ex.Candidates[i].Amount.Valid, i)
		assert.True(t, ex.Candidates[i].Amount.Decimal.Equal(decimal.RequireFromString(want)), i)
	}
}

func TestDecodeExtraction_LooseMentionFlags(t *testing.T) {
	payload := `[
		{"type": "expense", "amount": 5, "mentionsCredit": "true", "mentionsLoan": "FALSE", "mentionsInstallment": "maybe"},
		{"type": "expense", "amount": 6, "mentionsCredit": 1, "mentionsLoan": true},
		{"type": "expense", "amount": 7}
	]`

	ex, err := DecodeExtraction([]byte(payload))
	require.NoError(t, err)
	require.Len(t, ex.Candidates, 3)

	first := ex.Candidates[0]
	require.NotNil(t, first.MentionsCredit)
	assert.True(t, *first.MentionsCredit)
	require.NotNil(t, first.MentionsLoan)
	assert.False(t, *first.MentionsLoan)
	assert.Nil(t, first.MentionsInstallment)

	second := ex.Candidates[1]
	assert.Nil(t, second.MentionsCredit)
	require.NotNil(t, second.MentionsLoan)
	assert.True(t, *second.MentionsLoan)

	assert.Nil(t, ex.Candidates[2].MentionsCredit)
}
