package validation_test

import (
	"errors"
	"testing"

	"fjacquet/voice-ledger/internal/ledgererror"
	"fjacquet/voice-ledger/internal/models"
	"fjacquet/voice-ledger/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceCatalog() *models.EntityCatalog {
	c := &models.EntityCatalog{
		Accounts:     []models.Account{{ID: "A1"}, {ID: "A2"}},
		CreditCards:  []models.CreditCard{{ID: "C1"}},
		Loans:        []models.Loan{{ID: "L1"}},
		Installments: []models.Installment{{ID: "I1"}},
		Categories: []models.Category{
			{ID: "CAT1", Type: models.TypeExpense, Subcategories: []models.Subcategory{{ID: "SUB1"}}},
		},
	}
	c.ApplyDefaults()
	return c
}

func TestValidateReferences_AllKnown(t *testing.T) {
	records := []models.NormalizedRecord{
		{SourceAccountID: "A1", CategoryID: "CAT1", SubcategoryID: "SUB1"},
		{SourceAccountID: "C1"},
		{SourceAccountID: "A2", DestinationAccountID: "A1"},
		{Kind: models.ActionObligationPayment, SourceAccountID: "A1", RelatedID: "L1"},
		{Kind: models.ActionObligationPayment, RelatedID: "I1"},
		{Kind: models.ActionRequestClarification},
	}

	assert.NoError(t, validation.ValidateReferences(referenceCatalog(), records))
	assert.NoError(t, validation.ValidateReferences(referenceCatalog(), nil))
}

func TestValidateReferences_UnknownFailsWholeBatch(t *testing.T) {
	tests := []struct {
		name    string
		records []models.NormalizedRecord
		id      string
		field   string
		index   int
	}{
		{
			name: "unknown category among valid records",
			records: []models.NormalizedRecord{
				{SourceAccountID: "A1"},
				{SourceAccountID: "A1", CategoryID: "unknown-uuid"},
				{SourceAccountID: "A2"},
			},
			id:    "unknown-uuid",
			field: "categoryId",
			index: 1,
		},
		{
			name:    "account name instead of id",
			records: []models.NormalizedRecord{{SourceAccountID: "CIB"}},
			id:      "CIB",
			field:   "sourceAccountId",
		},
		{
			name:    "unknown destination",
			records: []models.NormalizedRecord{{SourceAccountID: "A1", DestinationAccountID: "A9"}},
			id:      "A9",
			field:   "destinationAccountId",
		},
		{
			name:    "unknown related obligation",
			records: []models.NormalizedRecord{{RelatedID: "L404"}},
			id:      "L404",
			field:   "relatedId",
		},
		{
			name:    "unknown subcategory",
			records: []models.NormalizedRecord{{CategoryID: "CAT1", SubcategoryID: "SUB9"}},
			id:      "SUB9",
			field:   "subcategoryId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.ValidateReferences(referenceCatalog(), tt.records)
			require.Error(t, err)

			var refErr *ledgererror.ReferenceIntegrityError
			require.True(t, errors.As(err, &refErr))
			assert.Equal(t, tt.id, refErr.ID)
			assert.Equal(t, tt.field, refErr.Field)
			assert.Equal(t, tt.index, refErr.Index)
			assert.Equal(t, ledgererror.KindReferenceIntegrity, ledgererror.KindOf(err))
		})
	}
}

func TestValidateReferences_DoesNotMutate(t *testing.T) {
	records := []models.NormalizedRecord{{SourceAccountID: "A1", CategoryID: "nope"}}
	before := records[0]

	_ = validation.ValidateReferences(referenceCatalog(), records)
	assert.Equal(t, before, records[0])
}
