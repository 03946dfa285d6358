// Package parse handles the single-message command
package parse

import (
	"fmt"
	"strings"

	"fjacquet/voice-ledger/cmd/common"
	"fjacquet/voice-ledger/cmd/root"
	"fjacquet/voice-ledger/internal/models"

	"github.com/spf13/cobra"
)

var (
	message  string
	format   string
	envelope string
)

// Cmd represents the parse command
var Cmd = &cobra.Command{
	Use:   "parse [message]",
	Short: "Extract transactions from one message",
	Long: `Extract validated transactions from one free-text message.

The message is read from --message or from the remaining arguments. Accounts,
cards, loans, installments and categories come from the catalog file.

Example:
  voice-ledger parse -c catalog.yaml "paid 250 for groceries with my visa"
  voice-ledger parse -c catalog.yaml -m "salary 12000 arrived" --format csv`,
	RunE: parseFunc,
}

func init() {
	Cmd.Flags().StringVarP(&message, "message", "m", "", "Message to process")
	Cmd.Flags().StringVarP(&format, "format", "f", common.FormatJSON, "Output format (json, csv)")
	Cmd.Flags().StringVar(&envelope, "envelope", string(models.EnvelopeTransactions), "Top-level key of the records (transactions, actions)")
}

func parseFunc(cmd *cobra.Command, args []string) error {
	text := message
	if text == "" {
		text = strings.Join(args, " ")
	}

	app := root.GetContainer()
	if app == nil {
		return fmt.Errorf("container not initialized")
	}
	root.Log.Debug("Parse command called")

	return common.ProcessMessage(cmd.Context(), app, root.SharedFlags.CatalogFile, text,
		models.ParseEnvelope(envelope), format, cmd.OutOrStdout())
}
