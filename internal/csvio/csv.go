// Package csvio reads batches of messages from CSV and writes normalized
// transactions back out as flat CSV rows.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"fjacquet/voice-ledger/internal/fileutils"
	"fjacquet/voice-ledger/internal/logging"
	"fjacquet/voice-ledger/internal/models"

	"github.com/gocarina/gocsv"
)

// MessageRow is one input line of a batch file.
type MessageRow struct {
	ID      string `csv:"id"`
	Message string `csv:"message"`
}

// TransactionRow is one normalized record flattened for CSV. Null ids and
// amounts are written as empty cells.
type TransactionRow struct {
	MessageID            string  `csv:"message_id"`
	Index                int     `csv:"index"`
	Action               string  `csv:"action"`
	Type                 string  `csv:"type"`
	Amount               string  `csv:"amount"`
	Currency             string  `csv:"currency"`
	SourceAccountID      string  `csv:"source_account_id"`
	DestinationAccountID string  `csv:"destination_account_id"`
	CategoryID           string  `csv:"category_id"`
	SubcategoryID        string  `csv:"subcategory_id"`
	RelatedID            string  `csv:"related_id"`
	Confidence           float64 `csv:"confidence"`
	MentionsCredit       bool    `csv:"mentions_credit"`
	MentionsLoan         bool    `csv:"mentions_loan"`
	MentionsInstallment  bool    `csv:"mentions_installment"`
	Note                 string  `csv:"note"`
	Error                string  `csv:"error"`
}

// Codec reads and writes CSV with a fixed delimiter.
type Codec struct {
	Delimiter rune
	log       logging.Logger
}

// NewCodec returns a Codec. A zero delimiter means ','.
func NewCodec(delimiter rune, logger logging.Logger) *Codec {
	if delimiter == 0 {
		delimiter = ','
	}
	return &Codec{Delimiter: delimiter, log: logger}
}

// ReadCSV decodes rows from r into TCSVRow structs by header name.
func ReadCSV[TCSVRow any](c *Codec, r io.Reader) ([]TCSVRow, error) {
	reader := csv.NewReader(r)
	reader.Comma = c.Delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows []TCSVRow
	if err := gocsv.UnmarshalCSV(reader, &rows); err != nil {
		return nil, fmt.Errorf("error parsing CSV: %w", err)
	}
	return rows, nil
}

// ReadCSVFile opens filePath and decodes it with ReadCSV.
func ReadCSVFile[TCSVRow any](c *Codec, filePath string) ([]TCSVRow, error) {
	c.log.Info("Reading CSV file", logging.F(logging.FieldInputFile, filePath))

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			c.log.WithError(err).Warn("Failed to close file")
		}
	}()

	rows, err := ReadCSV[TCSVRow](c, file)
	if err != nil {
		return nil, err
	}

	c.log.Info("Successfully read CSV data", logging.F(logging.FieldCount, len(rows)))
	return rows, nil
}

// WriteTransactions encodes rows, header first, to w.
func (c *Codec) WriteTransactions(w io.Writer, rows []TransactionRow) error {
	if rows == nil {
		rows = []TransactionRow{}
	}
	writer := csv.NewWriter(w)
	writer.Comma = c.Delimiter

	if err := gocsv.MarshalCSV(&rows, gocsv.NewSafeCSVWriter(writer)); err != nil {
		return fmt.Errorf("error writing CSV data: %w", err)
	}
	return nil
}

// WriteTransactionsToFile writes rows to csvFile, creating its directory.
func (c *Codec) WriteTransactionsToFile(rows []TransactionRow, csvFile string) error {
	c.log.Info("Writing transactions to CSV file",
		logging.F(logging.FieldOutputFile, csvFile),
		logging.F(logging.FieldCount, len(rows)))

	if err := fileutils.EnsureParentDir(csvFile); err != nil {
		return err
	}

	file, err := os.Create(csvFile)
	if err != nil {
		return fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			c.log.WithError(err).Warn("Failed to close file")
		}
	}()

	return c.WriteTransactions(file, rows)
}

// RowsFromRecords flattens the records produced for one message.
func RowsFromRecords(messageID string, records []models.NormalizedRecord) []TransactionRow {
	rows := make([]TransactionRow, 0, len(records))
	for i, r := range records {
		row := TransactionRow{
			MessageID:            messageID,
			Index:                i,
			Action:               string(r.Kind),
			Type:                 string(r.Type),
			Currency:             r.Currency,
			SourceAccountID:      r.SourceAccountID,
			DestinationAccountID: r.DestinationAccountID,
			CategoryID:           r.CategoryID,
			SubcategoryID:        r.SubcategoryID,
			RelatedID:            r.RelatedID,
			Confidence:           r.Confidence,
			MentionsCredit:       r.MentionsCredit,
			MentionsLoan:         r.MentionsLoan,
			MentionsInstallment:  r.MentionsInstallment,
			Note:                 r.Note,
		}
		if r.Amount.Valid {
			row.Amount = r.Amount.Decimal.String()
		}
		rows = append(rows, row)
	}
	return rows
}

// ErrorRow records a message that produced no transactions because it failed.
func ErrorRow(messageID string, err error) TransactionRow {
	return TransactionRow{MessageID: messageID, Index: -1, Error: err.Error()}
}
