// Package validation checks caller inputs and the referential integrity of
// extracted records against the entity catalog.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsValidCatalogFile checks that a catalog file exists, is a regular file and
// has a supported extension.
func IsValidCatalogFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("path %s is not a regular file", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return nil
	default:
		return fmt.Errorf("unsupported catalog file %s. Supported extensions are .yaml, .yml, .json", path)
	}
}

// IsValidOutputFormat checks if the given format is supported.
func IsValidOutputFormat(format string) error {
	switch format {
	case "json", "csv":
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s. Supported formats are 'json', 'csv'", format)
	}
}
