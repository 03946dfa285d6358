// Package common contains shared functionality for command handlers
package common

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"fjacquet/voice-ledger/internal/container"
	"fjacquet/voice-ledger/internal/csvio"
	"fjacquet/voice-ledger/internal/logging"
	"fjacquet/voice-ledger/internal/models"
	"fjacquet/voice-ledger/internal/store"
	"fjacquet/voice-ledger/internal/validation"
)

// Output formats accepted by --format.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// LoadCatalog reads the catalog from file, or from the configured store when
// file is empty.
func LoadCatalog(app *container.Container, file string) (models.EntityCatalog, error) {
	var loader store.CatalogLoader = app.GetStore()
	if file != "" {
		if err := validation.IsValidCatalogFile(file); err != nil {
			return models.EntityCatalog{}, err
		}
		loader = store.NewCatalogStore(file, app.GetLogger())
	}

	catalog, err := loader.LoadCatalog()
	if err != nil {
		return models.EntityCatalog{}, err
	}
	return *catalog, nil
}

// WriteResult renders result as indented JSON or as CSV rows tagged with messageID.
func WriteResult(w io.Writer, codec *csvio.Codec, messageID string, result models.Result, format string) error {
	format = strings.ToLower(format)
	if format == "" {
		format = FormatJSON
	}
	if err := validation.IsValidOutputFormat(format); err != nil {
		return err
	}

	if format == FormatCSV {
		return codec.WriteTransactions(w, csvio.RowsFromRecords(messageID, result.Transactions))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// ProcessMessage runs one message through the pipeline and writes the result to w.
func ProcessMessage(ctx context.Context, app *container.Container, catalogFile, message string, envelope models.Envelope, format string, w io.Writer) error {
	log := app.GetLogger()

	catalog, err := LoadCatalog(app, catalogFile)
	if err != nil {
		return fmt.Errorf("error loading catalog: %w", err)
	}

	result, err := app.GetProcessor().Process(ctx, models.VoiceRequest{
		Message:  message,
		Catalog:  catalog,
		Envelope: envelope,
	})
	if err != nil {
		return err
	}

	log.Debug("Writing result",
		logging.F(logging.FieldCount, len(result.Transactions)),
		logging.F("format", format))
	return WriteResult(w, app.GetCodec(), "1", result, format)
}
