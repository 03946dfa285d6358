package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"fjacquet/voice-ledger/internal/confidence"
	"fjacquet/voice-ledger/internal/ledgererror"
	"fjacquet/voice-ledger/internal/llm"
	"fjacquet/voice-ledger/internal/logging"
	"fjacquet/voice-ledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	reply string
	err   error
	got   llm.CompletionRequest
	calls int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	s.calls++
	s.got = req
	return s.reply, s.err
}

func testCatalog() models.EntityCatalog {
	c := models.EntityCatalog{
		Accounts:    []models.Account{{ID: "A1", Name: "CIB"}, {ID: "A2", Name: "Cash"}},
		CreditCards: []models.CreditCard{{ID: "C1", Name: "Visa"}},
		Loans:       []models.Loan{{ID: "L1", Name: "Car"}},
		Categories: []models.Category{
			{ID: "K1", Name: "Food", Type: models.TypeExpense, Subcategories: []models.Subcategory{{ID: "S1", Name: "Restaurants"}}},
			{ID: "K2", Name: "Salary", Type: models.TypeIncome},
		},
		DefaultAccountID: "A1",
	}
	c.ApplyDefaults()
	return c
}

func TestProcess_EndToEnd(t *testing.T) {
	provider := &stubProvider{reply: "```json\n" + `{"actions":[{"action":"LOG_TRANSACTION","type":"expense","amount":-50,"sourceAccountId":null,"confidence":1.2}]}` + "\n```"}
	log := logging.NewMockLogger()
	p := NewProcessor(provider, nil, log)

	ctx := WithRequestID(context.Background(), "req-1")
	result, err := p.Process(ctx, models.VoiceRequest{Message: "spent 50", Catalog: testCatalog()})
	require.NoError(t, err)

	require.Len(t, result.Transactions, 1)
	r := result.Transactions[0]
	assert.Equal(t, models.TypeExpense, r.Type)
	assert.Equal(t, "50", r.Amount.Decimal.String())
	assert.Equal(t, "A1", r.SourceAccountID)
	assert.Empty(t, r.DestinationAccountID)
	assert.Equal(t, 0.95, r.Confidence)
	assert.Nil(t, result.Suggestion.Category)

	assert.Equal(t, "spent 50", provider.got.User)
	assert.True(t, provider.got.JSONMode)
	assert.Contains(t, provider.got.System, `"id":"A1"`)

	id, ok := log.FieldValue("Processed message", logging.FieldRequestID)
	require.True(t, ok)
	assert.Equal(t, "req-1", id)
}

func TestProcess_ResponseShape(t *testing.T) {
	provider := &stubProvider{reply: `{"transactions":[
		{"type":"expense","amount":10,"categoryId":"K1","confidence":0.9},
		{"type":"expense","amount":20,"confidence":0.65},
		{"type":"income","amount":30,"categoryId":"K2","confidence":0.71}
	],"suggestion":{"category":"Food","subcategory":"Restaurants","confidence":0.95}}`}
	p := NewProcessor(provider, confidence.DefaultGate(), logging.NewMockLogger())

	result, err := p.Process(context.Background(), models.VoiceRequest{
		Message:  "x",
		Catalog:  testCatalog(),
		Envelope: models.EnvelopeActions,
	})
	require.NoError(t, err)

	b, err := json.Marshal(result)
	require.NoError(t, err)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &body))
	assert.Contains(t, body, "actions")
	assert.NotContains(t, body, "transactions")
	assert.JSONEq(t, `{"category":"Food","subcategory":"Restaurants"}`, string(body["suggestion"]))

	var actions []map[string]interface{}
	require.NoError(t, json.Unmarshal(body["actions"], &actions))
	require.Len(t, actions, 2)
	assert.Equal(t, 0.9, actions[0]["confidence"])
	assert.Equal(t, 0.71, actions[1]["confidence"])
	assert.Nil(t, actions[1]["sourceAccountId"])
	assert.Equal(t, "A1", actions[1]["destinationAccountId"])
}

func TestProcess_RequestErrors(t *testing.T) {
	dup := testCatalog()
	dup.Accounts = append(dup.Accounts, models.Account{ID: "A1"})

	tests := []struct {
		name     string
		provider llm.Provider
		req      models.VoiceRequest
		kind     ledgererror.Kind
	}{
		{name: "blank message", provider: &stubProvider{}, req: models.VoiceRequest{Message: "  ", Catalog: testCatalog()}, kind: ledgererror.KindInvalidRequest},
		{name: "invalid catalog", provider: &stubProvider{}, req: models.VoiceRequest{Message: "x", Catalog: dup}, kind: ledgererror.KindInvalidRequest},
		{name: "no provider", provider: nil, req: models.VoiceRequest{Message: "x", Catalog: testCatalog()}, kind: ledgererror.KindConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProcessor(tt.provider, nil, logging.NewMockLogger())
			_, err := p.Process(context.Background(), tt.req)
			assert.Equal(t, tt.kind, ledgererror.KindOf(err))
			if sp, ok := tt.provider.(*stubProvider); ok {
				assert.Zero(t, sp.calls)
			}
		})
	}
}

func TestProcess_MissingProviderReportsCause(t *testing.T) {
	cause := &ledgererror.ConfigurationError{Key: "GROQ_API_KEY", Reason: "not set"}
	p := NewProcessor(nil, nil, logging.NewMockLogger(), WithProviderError(cause))

	_, err := p.Process(context.Background(), models.VoiceRequest{Message: "x", Catalog: testCatalog()})
	assert.Same(t, cause, err)
	assert.Contains(t, err.Error(), "GROQ_API_KEY")

	// request validation still runs first
	_, err = p.Process(context.Background(), models.VoiceRequest{Message: " ", Catalog: testCatalog()})
	assert.Equal(t, ledgererror.KindInvalidRequest, ledgererror.KindOf(err))
}

func TestProcess_ProviderErrorPropagates(t *testing.T) {
	perr := &ledgererror.ProviderError{Provider: "stub", StatusCode: 503, Err: errors.New("down")}
	log := logging.NewMockLogger()
	p := NewProcessor(&stubProvider{err: perr}, nil, log)

	_, err := p.Process(context.Background(), models.VoiceRequest{Message: "x", Catalog: testCatalog()})
	assert.Same(t, perr, err)
	assert.True(t, log.HasEntry("ERROR", "Provider call failed"))
}

func TestPostprocess_Failures(t *testing.T) {
	catalog := testCatalog()
	p := NewProcessor(nil, nil, logging.NewMockLogger())

	tests := []struct {
		name string
		raw  string
		kind ledgererror.Kind
	}{
		{name: "empty", raw: "", kind: ledgererror.KindEmptyUpstreamResponse},
		{name: "not json", raw: "sorry, no idea", kind: ledgererror.KindMalformedUpstreamOutput},
		{name: "unknown action", raw: `{"actions":[{"action":"DANCE","confidence":0.9}]}`, kind: ledgererror.KindMalformedUpstreamOutput},
		{name: "hallucinated category", raw: `[{"type":"expense","categoryId":"unknown-uuid","confidence":0.9},{"type":"expense","categoryId":"K1","confidence":0.9}]`, kind: ledgererror.KindReferenceIntegrity},
		{name: "hallucinated loan", raw: `{"action":"OBLIGATION_PAYMENT","relatedId":"L9","confidence":0.9}`, kind: ledgererror.KindReferenceIntegrity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Postprocess(&catalog, tt.raw, models.EnvelopeTransactions)
			assert.Equal(t, tt.kind, ledgererror.KindOf(err))
		})
	}
}

func TestPostprocess_ReferenceErrorCarriesID(t *testing.T) {
	catalog := testCatalog()
	log := logging.NewMockLogger()
	p := NewProcessor(nil, nil, log)

	_, err := p.Postprocess(&catalog, `[{"type":"expense","categoryId":"unknown-uuid","confidence":0.9}]`, "")
	var ref *ledgererror.ReferenceIntegrityError
	require.True(t, errors.As(err, &ref))
	assert.Equal(t, "unknown-uuid", ref.ID)

	v, ok := log.FieldValue("Rejected batch with unknown entity", logging.FieldInvalidID)
	require.True(t, ok)
	assert.Equal(t, "unknown-uuid", v)
}

func TestPostprocess_MalformedKeepsRaw(t *testing.T) {
	catalog := testCatalog()
	p := NewProcessor(nil, nil, logging.NewMockLogger())

	raw := `{"actions":[{"action":"DANCE"}]}`
	_, err := p.Postprocess(&catalog, raw, "")
	var malformed *ledgererror.MalformedOutputError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, raw, malformed.Raw)
}

func TestPostprocess_CreditOverrideAndTransfer(t *testing.T) {
	catalog := testCatalog()
	log := logging.NewMockLogger()
	p := NewProcessor(nil, nil, log)

	raw := `{"actions":[
		{"action":"LOG_TRANSACTION","type":"expense","amount":100,"mentionsCredit":true,"confidence":0.8},
		{"action":"LOG_TRANSACTION","type":"expense","amount":100,"sourceAccountId":"C1","mentionsCredit":true,"confidence":0.8},
		{"action":"TRANSFER","type":"transfer","amount":5,"confidence":0.8}
	]}`
	result, err := p.Postprocess(&catalog, raw, models.EnvelopeActions)
	require.NoError(t, err)
	require.Len(t, result.Transactions, 3)

	assert.Empty(t, result.Transactions[0].SourceAccountID)
	assert.Equal(t, "C1", result.Transactions[1].SourceAccountID)
	assert.Equal(t, "A1", result.Transactions[2].SourceAccountID)
	assert.Empty(t, result.Transactions[2].DestinationAccountID)
	assert.True(t, log.HasEntry("WARN", "Transfer has no destination account"))
}

func TestPostprocess_StringMentionFlags(t *testing.T) {
	catalog := testCatalog()
	p := NewProcessor(nil, nil, logging.NewMockLogger())

	raw := `[
		{"type":"expense","amount":5,"confidence":0.9,"mentionsCredit":"true"},
		{"type":"expense","amount":7,"confidence":0.9,"mentionsLoan":"yes"}
	]`
	result, err := p.Postprocess(&catalog, raw, "")
	require.NoError(t, err)
	require.Len(t, result.Transactions, 2)

	assert.True(t, result.Transactions[0].MentionsCredit)
	assert.Empty(t, result.Transactions[0].SourceAccountID)
	assert.False(t, result.Transactions[1].MentionsLoan)
	assert.Equal(t, "A1", result.Transactions[1].SourceAccountID)
}

func TestPostprocess_EverythingFiltered(t *testing.T) {
	catalog := testCatalog()
	p := NewProcessor(nil, confidence.NewGate(0.7, 0.9), logging.NewMockLogger())

	result, err := p.Postprocess(&catalog, `[{"type":"expense","confidence":0.1}]`, "")
	require.NoError(t, err)

	b, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"transactions":[],"suggestion":{"category":null,"subcategory":null}}`, string(b))
}

func TestRequestID(t *testing.T) {
	_, ok := RequestID(context.Background())
	assert.False(t, ok)

	id, ok := RequestID(WithRequestID(context.Background(), "abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)
}
