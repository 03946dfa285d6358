// Package currencyutils parses amounts written with currency symbols or
// locale separators and formats amounts for display.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// symbolPattern matches currency codes, symbols and whitespace around an amount.
var symbolPattern = regexp.MustCompile(`(?i)CHF|EGP|USD|EUR|GBP|SAR|AED|E£|ج\.م\.?|جنيه|[€$£¥₹₺₽₩฿₫₪]|\s`)

// ParseAmount parses "1,234.56", "1.234,56", "1'234.56", "EGP 250" and the like.
// An empty string is an error.
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// StandardizeAmount strips currency markers and thousands separators so the
// result can be read by decimal.NewFromString.
func StandardizeAmount(amountStr string) string {
	s := symbolPattern.ReplaceAllString(amountStr, "")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, "٬", "")
	s = strings.ReplaceAll(s, "٫", ".")

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0 && lastDot < lastComma:
		// 1.234,56
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case lastComma >= 0 && lastDot >= 0:
		// 1,234.56
		s = strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if len(s)-lastComma-1 <= 2 && strings.Count(s, ",") == 1 {
			// 1234,56
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// 1,234 or 1,234,567
			s = strings.ReplaceAll(s, ",", "")
		}
	}
	return s
}

// FormatAmount renders amount with two decimals and the currency's symbol or code.
func FormatAmount(amount decimal.Decimal, currency string) string {
	formatted := amount.StringFixed(2)

	switch strings.ToUpper(currency) {
	case "":
		return formatted
	case "EUR":
		return "€" + formatted
	case "USD":
		return "$" + formatted
	case "GBP":
		return "£" + formatted
	case "EGP":
		return "E£" + formatted
	default:
		return strings.ToUpper(currency) + " " + formatted
	}
}
