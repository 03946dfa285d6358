// Package batch handles batch processing of message files
package batch

import (
	"context"
	"fmt"
	"path/filepath"

	"fjacquet/voice-ledger/cmd/common"
	"fjacquet/voice-ledger/cmd/root"
	"fjacquet/voice-ledger/internal/batch"
	"fjacquet/voice-ledger/internal/container"
	"fjacquet/voice-ledger/internal/csvio"
	"fjacquet/voice-ledger/internal/logging"
	"fjacquet/voice-ledger/internal/models"

	"github.com/spf13/cobra"
)

var (
	inputFile  string
	outputFile string
)

// Cmd represents the batch command
var Cmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch process a CSV file of messages",
	Long: `Batch process a CSV file of messages and write the extracted transactions to another CSV file.

The input file needs an "id" and a "message" column. Every message is processed
against the same catalog; a message that fails produces a single row carrying
the error instead of aborting the run.

Example:
  voice-ledger batch -c catalog.yaml -i messages.csv -o transactions.csv`,
	RunE: batchFunc,
}

func init() {
	Cmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input CSV file of messages")
	Cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output CSV file of transactions")
}

func batchFunc(cmd *cobra.Command, args []string) error {
	if inputFile == "" || outputFile == "" {
		return fmt.Errorf("input and output files must be specified")
	}

	app := root.GetContainer()
	if app == nil {
		return fmt.Errorf("container not initialized")
	}

	summary, err := Run(cmd.Context(), app, root.SharedFlags.CatalogFile, inputFile, outputFile)
	if err != nil {
		return err
	}

	root.Log.Info(fmt.Sprintf("Batch processing completed. %d messages, %d transactions, %d failed.",
		summary.Messages, summary.Transactions, summary.Failed))
	return nil
}

// Run reads messages from input, processes them and writes the rows to output.
func Run(ctx context.Context, app *container.Container, catalogFile, input, output string) (batch.Summary, error) {
	logger := app.GetLogger()
	codec := app.GetCodec()

	catalog, err := common.LoadCatalog(app, catalogFile)
	if err != nil {
		return batch.Summary{}, fmt.Errorf("error loading catalog: %w", err)
	}

	messages, err := csvio.ReadCSVFile[csvio.MessageRow](codec, input)
	if err != nil {
		return batch.Summary{}, fmt.Errorf("error reading messages: %w", err)
	}
	if len(messages) == 0 {
		logger.Warn("No messages found in input file", logging.F(logging.FieldInputFile, input))
	}

	logger.Info("Processing messages",
		logging.F(logging.FieldInputFile, filepath.Base(input)),
		logging.F(logging.FieldCount, len(messages)))

	rows, summary, err := app.GetBatchRunner().Run(ctx, catalog, messages, models.EnvelopeTransactions)
	if err != nil {
		return batch.Summary{}, err
	}

	if err := codec.WriteTransactionsToFile(rows, output); err != nil {
		return batch.Summary{}, err
	}

	logger.Info("Wrote transactions",
		logging.F(logging.FieldOutputFile, output),
		logging.F(logging.FieldCount, len(rows)))
	return summary, nil
}
