// Package store loads entity catalogs from disk for the CLI and server.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fjacquet/voice-ledger/internal/fileutils"
	"fjacquet/voice-ledger/internal/logging"
	"fjacquet/voice-ledger/internal/models"

	"gopkg.in/yaml.v3"
)

// DefaultCatalogFile is looked up when no catalog file is configured.
const DefaultCatalogFile = "catalog.yaml"

// CatalogLoader is what consumers of a catalog source depend on.
type CatalogLoader interface {
	LoadCatalog() (*models.EntityCatalog, error)
}

// CatalogStore reads an entity catalog from a YAML or JSON file.
type CatalogStore struct {
	CatalogFile string
	log         logging.Logger
}

// NewCatalogStore creates a store for catalogFile. An empty name means DefaultCatalogFile.
func NewCatalogStore(catalogFile string, logger logging.Logger) *CatalogStore {
	if catalogFile == "" {
		catalogFile = DefaultCatalogFile
	}
	return &CatalogStore{
		CatalogFile: catalogFile,
		log:         logger,
	}
}

// FindConfigFile looks for a file in the usual locations: as given, then
// ./config, then ~/.config/voice-ledger.
func (s *CatalogStore) FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if fileutils.FileExists(filename) {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
	}
	for _, location := range locations {
		if fileutils.FileExists(location) {
			return location, nil
		}
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".config", "voice-ledger", filename)
		if fileutils.FileExists(configPath) {
			return configPath, nil
		}
	}

	return "", os.ErrNotExist
}

// LoadCatalog reads, decodes and validates the catalog. The format follows
// the file extension; .json files accept the same field aliases as the API.
func (s *CatalogStore) LoadCatalog() (*models.EntityCatalog, error) {
	path, err := s.FindConfigFile(s.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("catalog file not found: %s", s.CatalogFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog file: %w", err)
	}

	catalog, err := DecodeCatalog(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("error parsing catalog file %s: %w", path, err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}

	s.log.Debug("Loaded entity catalog",
		logging.F(logging.FieldInputFile, path),
		logging.F("accounts", len(catalog.Accounts)),
		logging.F("categories", len(catalog.Categories)))
	return catalog, nil
}

// DecodeCatalog decodes catalog data; ext selects JSON (".json") or YAML (anything else).
func DecodeCatalog(data []byte, ext string) (*models.EntityCatalog, error) {
	var catalog models.EntityCatalog
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &catalog); err != nil {
			return nil, err
		}
		return &catalog, nil
	}

	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	catalog.ApplyDefaults()
	return &catalog, nil
}
