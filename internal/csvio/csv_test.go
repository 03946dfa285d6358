package csvio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fjacquet/voice-ledger/internal/logging"
	"fjacquet/voice-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVFile_Messages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.csv")
	content := "id,message\n" +
		"m1,spent 50 on lunch\n" +
		"m2,\"paid 1,000 rent, and got salary\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	log := logging.NewMockLogger()
	rows, err := ReadCSVFile[MessageRow](NewCodec(0, log), path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, MessageRow{ID: "m1", Message: "spent 50 on lunch"}, rows[0])
	assert.Equal(t, "paid 1,000 rent, and got salary", rows[1].Message)

	v, ok := log.FieldValue("Successfully read CSV data", logging.FieldCount)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestReadCSV_CustomDelimiter(t *testing.T) {
	rows, err := ReadCSV[MessageRow](NewCodec(';', logging.NewMockLogger()), strings.NewReader("message;id\nhello;x\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "x", rows[0].ID)
	assert.Equal(t, "hello", rows[0].Message)
}

func TestReadCSVFile_Missing(t *testing.T) {
	_, err := ReadCSVFile[MessageRow](NewCodec(0, logging.NewMockLogger()), filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error opening CSV file")
}

func TestRowsFromRecords(t *testing.T) {
	records := []models.NormalizedRecord{
		{
			Kind:            models.ActionLogTransaction,
			Type:            models.TypeExpense,
			Amount:          decimal.NewNullDecimal(decimal.RequireFromString("50.5")),
			Currency:        "EGP",
			SourceAccountID: "A1",
			CategoryID:      "K1",
			Confidence:      0.8,
		},
		{
			Kind:       models.ActionRequestClarification,
			Confidence: 0.5,
			Note:       "which card?",
		},
	}

	rows := RowsFromRecords("m1", records)
	require.Len(t, rows, 2)
	assert.Equal(t, "m1", rows[0].MessageID)
	assert.Equal(t, 0, rows[0].Index)
	assert.Equal(t, "50.5", rows[0].Amount)
	assert.Equal(t, "expense", rows[0].Type)
	assert.Equal(t, 1, rows[1].Index)
	assert.Equal(t, "", rows[1].Amount)
	assert.Equal(t, "", rows[1].Type)
	assert.Equal(t, "which card?", rows[1].Note)
}

func TestWriteTransactions(t *testing.T) {
	rows := []TransactionRow{
		{MessageID: "m1", Action: "LOG_TRANSACTION", Type: "expense", Amount: "50", Currency: "EGP", SourceAccountID: "A1", Confidence: 0.8},
		ErrorRow("m2", errors.New("model did not return valid JSON")),
	}

	var buf bytes.Buffer
	require.NoError(t, NewCodec(';', logging.NewMockLogger()).WriteTransactions(&buf, rows))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "message_id;index;action;type;amount;currency;"))
	assert.Contains(t, lines[1], "m1;0;LOG_TRANSACTION;expense;50;EGP;A1;")
	assert.Contains(t, lines[1], ";0.8;")
	assert.Contains(t, lines[2], "m2;-1;")
	assert.True(t, strings.HasSuffix(lines[2], "model did not return valid JSON"))
}

func TestWriteTransactionsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "transactions.csv")
	codec := NewCodec(0, logging.NewMockLogger())

	rows := RowsFromRecords("m1", []models.NormalizedRecord{{Kind: models.ActionQueryState, Confidence: 0.9}})
	require.NoError(t, codec.WriteTransactionsToFile(rows, path))

	back, err := ReadCSVFile[TransactionRow](codec, path)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "QUERY_STATE", back[0].Action)
	assert.Equal(t, 0.9, back[0].Confidence)
}
