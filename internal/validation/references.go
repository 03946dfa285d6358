package validation

import (
	"fjacquet/voice-ledger/internal/ledgererror"
	"fjacquet/voice-ledger/internal/models"
)

// ValidateReferences fails the whole batch on the first identifier that is not
// in the catalog. An unknown id means the model invented an entity, so no
// record of the batch is trusted. Records are not modified.
func ValidateReferences(catalog *models.EntityCatalog, records []models.NormalizedRecord) error {
	valid := catalog.ValidIDs()
	for i, r := range records {
		for _, ref := range r.References() {
			if _, ok := valid[ref.ID]; !ok {
				return &ledgererror.ReferenceIntegrityError{
					ID:    ref.ID,
					Field: ref.Field,
					Index: i,
				}
			}
		}
	}
	return nil
}
