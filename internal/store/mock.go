package store

import "fjacquet/voice-ledger/internal/models"

// MockCatalogStore is a CatalogLoader for tests.
type MockCatalogStore struct {
	Catalog *models.EntityCatalog
	Err     error
	Loads   int
}

// LoadCatalog returns the configured catalog or error.
func (m *MockCatalogStore) LoadCatalog() (*models.EntityCatalog, error) {
	m.Loads++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Catalog, nil
}
