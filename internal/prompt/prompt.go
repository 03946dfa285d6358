// Package prompt builds the system instructions sent with every extraction request.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"fjacquet/voice-ledger/internal/models"
)

var systemTemplate = template.Must(template.New("system").Parse(`You are a strict financial execution engine.
Return JSON only.

Return ONLY ids exactly as provided below. Never return names.
If unsure, return an action of REQUEST_CLARIFICATION.

ACCOUNTS:
{{.Accounts}}

CREDIT_CARDS:
{{.CreditCards}}

LOANS:
{{.Loans}}

INSTALLMENTS:
{{.Installments}}

CATEGORIES:
{{.Categories}}

DEFAULT_ACCOUNT_ID:
{{.DefaultAccountID}}

BASE_CURRENCY:
{{.BaseCurrency}}

Split the message into independent financial clauses. Each clause produces one action.
Amounts must not leak between clauses.
If a credit card is mentioned, set "mentionsCredit": true and match only from CREDIT_CARDS.
If a loan or installment is mentioned, use OBLIGATION_PAYMENT, set "relatedId" and the matching mention flag.
Each category has a fixed type. Match categories by id; if unsure, use null.
Confidence starts at 0.5: +0.2 exact account match, +0.2 category match, +0.1 currency detected. Never return 1.0.

OUTPUT FORMAT:
{
  "actions": [
    {
      "action": "LOG_TRANSACTION | OBLIGATION_PAYMENT | TRANSFER | REQUEST_CLARIFICATION | QUERY_STATE",
      "type": "expense | income | transfer | null",
      "amount": number | null,
      "currency": string,
      "categoryId": string | null,
      "subcategoryId": string | null,
      "sourceAccountId": string | null,
      "destinationAccountId": string | null,
      "relatedId": string | null,
      "confidence": number,
      "mentionsCredit": boolean,
      "mentionsLoan": boolean,
      "mentionsInstallment": boolean
    }
  ],
  "suggestion": {"category": string | null, "subcategory": string | null, "confidence": number}
}
`))

type templateData struct {
	Accounts         string
	CreditCards      string
	Loans            string
	Installments     string
	Categories       string
	DefaultAccountID string
	BaseCurrency     string
}

// System renders the system prompt for a catalog.
func System(catalog *models.EntityCatalog) (string, error) {
	data := templateData{
		DefaultAccountID: "null",
		BaseCurrency:     models.DefaultBaseCurrency,
	}
	if catalog != nil {
		var err error
		parts := []struct {
			dst *string
			v   any
		}{
			{&data.Accounts, catalog.Accounts},
			{&data.CreditCards, catalog.CreditCards},
			{&data.Loans, catalog.Loans},
			{&data.Installments, catalog.Installments},
			{&data.Categories, catalog.Categories},
		}
		for _, p := range parts {
			if *p.dst, err = compact(p.v); err != nil {
				return "", err
			}
		}
		if catalog.DefaultAccountID != "" {
			data.DefaultAccountID = catalog.DefaultAccountID
		}
		if catalog.BaseCurrency != "" {
			data.BaseCurrency = catalog.BaseCurrency
		}
	}

	var buf bytes.Buffer
	if err := systemTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return buf.String(), nil
}

func compact(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode catalog for prompt: %w", err)
	}
	return string(b), nil
}
