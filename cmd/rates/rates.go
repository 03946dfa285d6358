// Package rates prints the current exchange rates
package rates

import (
	"encoding/json"
	"fmt"
	"strings"

	"fjacquet/voice-ledger/cmd/root"
	"fjacquet/voice-ledger/internal/currencyutils"
	"fjacquet/voice-ledger/internal/ledgererror"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	base    string
	convert string
)

// Cmd represents the rates command
var Cmd = &cobra.Command{
	Use:   "rates",
	Short: "Print exchange rates or convert an amount",
	Long: `Print the latest exchange rates for a base currency, or convert an amount.

Rates come from the configured exchange-rate endpoint and need EXCHANGE_API_KEY.

Example:
  voice-ledger rates --base EUR
  voice-ledger rates --convert "100 USD EGP"`,
	RunE: ratesFunc,
}

func init() {
	Cmd.Flags().StringVar(&base, "base", "", "Base currency (default: forex.base)")
	Cmd.Flags().StringVar(&convert, "convert", "", `Convert "AMOUNT FROM TO"`)
}

func ratesFunc(cmd *cobra.Command, args []string) error {
	app := root.GetContainer()
	if app == nil {
		return fmt.Errorf("container not initialized")
	}
	svc := app.GetForex()
	if svc == nil {
		return &ledgererror.ConfigurationError{Key: "EXCHANGE_API_KEY", Reason: "not set"}
	}
	out := cmd.OutOrStdout()

	if convert != "" {
		amount, from, to, err := parseConversion(convert)
		if err != nil {
			return err
		}
		converted, err := svc.Convert(cmd.Context(), amount, from, to)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s = %s\n",
			currencyutils.FormatAmount(amount, from), currencyutils.FormatAmount(converted, to))
		return err
	}

	code := base
	if code == "" {
		code = app.GetConfig().Forex.Base
	}
	table, err := svc.For(cmd.Context(), strings.ToUpper(code))
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(table)
}

// parseConversion reads "AMOUNT FROM TO".
func parseConversion(s string) (decimal.Decimal, string, string, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return decimal.Decimal{}, "", "", fmt.Errorf("expected \"AMOUNT FROM TO\", got %q", s)
	}
	amount, err := currencyutils.ParseAmount(parts[0])
	if err != nil {
		return decimal.Decimal{}, "", "", fmt.Errorf("invalid amount %q: %w", parts[0], err)
	}
	return amount, strings.ToUpper(parts[1]), strings.ToUpper(parts[2]), nil
}
