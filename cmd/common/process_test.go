package common_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/voice-ledger/cmd/common"
	"fjacquet/voice-ledger/internal/config"
	"fjacquet/voice-ledger/internal/container"
	"fjacquet/voice-ledger/internal/csvio"
	"fjacquet/voice-ledger/internal/ledgererror"
	"fjacquet/voice-ledger/internal/llm"
	"fjacquet/voice-ledger/internal/logging"
	"fjacquet/voice-ledger/internal/models"
	"fjacquet/voice-ledger/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedProvider struct {
	reply string
	err   error
}

func (f fixedProvider) Name() string { return "fixed" }

func (f fixedProvider) Complete(context.Context, llm.CompletionRequest) (string, error) {
	return f.reply, f.err
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.AI.Provider = config.ProviderGroq
	cfg.AI.Model = "test"
	cfg.Gate.MinConfidence = 0.7
	cfg.Gate.SuggestionConfidence = 0.9
	cfg.Forex.Base = "USD"
	cfg.Forex.TTLMinutes = 60
	return cfg
}

func testCatalog() *models.EntityCatalog {
	c := &models.EntityCatalog{
		Accounts:         []models.Account{{ID: "A1", Name: "Cash"}},
		DefaultAccountID: "A1",
	}
	c.ApplyDefaults()
	return c
}

func newApp(t *testing.T, provider llm.Provider, catalogs store.CatalogLoader) *container.Container {
	t.Helper()
	app, err := container.NewContainer(context.Background(), testConfig(),
		container.WithLogger(logging.NewMockLogger()),
		container.WithProvider(provider),
		container.WithCatalogStore(catalogs))
	require.NoError(t, err)
	return app
}

const reply = `{"transactions":[{"type":"expense","amount":-50,"confidence":1.2}],"suggestion":{"category":"Food","subcategory":null,"confidence":0.95}}`

func TestProcessMessage_JSON(t *testing.T) {
	app := newApp(t, fixedProvider{reply: reply}, &store.MockCatalogStore{Catalog: testCatalog()})

	var out bytes.Buffer
	err := common.ProcessMessage(context.Background(), app, "", "spent 50", models.EnvelopeTransactions, common.FormatJSON, &out)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	records := decoded["transactions"].([]any)
	require.Len(t, records, 1)
	record := records[0].(map[string]any)
	assert.Equal(t, "A1", record["sourceAccountId"])
	assert.Equal(t, 0.95, record["confidence"])
	assert.Equal(t, "Food", decoded["suggestion"].(map[string]any)["category"])
}

func TestProcessMessage_CSV(t *testing.T) {
	app := newApp(t, fixedProvider{reply: reply}, &store.MockCatalogStore{Catalog: testCatalog()})

	var out bytes.Buffer
	err := common.ProcessMessage(context.Background(), app, "", "spent 50", models.EnvelopeTransactions, common.FormatCSV, &out)
	require.NoError(t, err)

	rows, err := csvio.ReadCSV[csvio.TransactionRow](app.GetCodec(), &out)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0].MessageID)
	assert.Equal(t, "A1", rows[0].SourceAccountID)
}

func TestProcessMessage_CatalogFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"assets":[{"id":"B7","name":"Bank"}],"defaultAccount":"B7"}`), 0600))

	app := newApp(t, fixedProvider{reply: reply}, &store.MockCatalogStore{Err: errors.New("not used")})

	var out bytes.Buffer
	err := common.ProcessMessage(context.Background(), app, file, "spent 50", models.EnvelopeActions, common.FormatJSON, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `"actions"`)
	assert.Contains(t, out.String(), `"B7"`)
}

func TestProcessMessage_Errors(t *testing.T) {
	t.Run("catalog", func(t *testing.T) {
		app := newApp(t, fixedProvider{reply: reply}, &store.MockCatalogStore{Err: errors.New("no file")})
		err := common.ProcessMessage(context.Background(), app, "", "x", models.EnvelopeTransactions, common.FormatJSON, &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error loading catalog")
	})

	t.Run("reference", func(t *testing.T) {
		bad := `{"transactions":[{"type":"expense","amount":5,"categoryId":"ghost","confidence":0.9}]}`
		app := newApp(t, fixedProvider{reply: bad}, &store.MockCatalogStore{Catalog: testCatalog()})
		err := common.ProcessMessage(context.Background(), app, "", "x", models.EnvelopeTransactions, common.FormatJSON, &bytes.Buffer{})
		assert.Equal(t, ledgererror.KindReferenceIntegrity, ledgererror.KindOf(err))
	})

	t.Run("format", func(t *testing.T) {
		app := newApp(t, fixedProvider{reply: reply}, &store.MockCatalogStore{Catalog: testCatalog()})
		err := common.ProcessMessage(context.Background(), app, "", "x", models.EnvelopeTransactions, "xml", &bytes.Buffer{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported output format")
	})
}
