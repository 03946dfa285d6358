package validation_test

import (
	"os"
	"path/filepath"
	"testing"

	"fjacquet/voice-ledger/internal/validation"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCatalogFile(t *testing.T) {
	tmpDir := t.TempDir()

	yamlFile := filepath.Join(tmpDir, "catalog.yaml")
	err := os.WriteFile(yamlFile, []byte("accounts: []"), 0600)
	assert.NoError(t, err)

	textFile := filepath.Join(tmpDir, "catalog.txt")
	err = os.WriteFile(textFile, []byte("accounts"), 0600)
	assert.NoError(t, err)

	tests := []struct {
		name        string
		path        string
		expectError bool
		errContains string
	}{
		{
			name:        "Valid yaml file",
			path:        yamlFile,
			expectError: false,
		},
		{
			name:        "Directory",
			path:        tmpDir,
			expectError: true,
			errContains: "not a regular file",
		},
		{
			name:        "Non-existent path",
			path:        "/nonexistent/path/to/catalog.yaml",
			expectError: true,
			errContains: "path does not exist",
		},
		{
			name:        "Unsupported extension",
			path:        textFile,
			expectError: true,
			errContains: "unsupported catalog file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.IsValidCatalogFile(tt.path)
			if tt.expectError {
				assert.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsValidOutputFormat(t *testing.T) {
	tests := []struct {
		name        string
		format      string
		expectError bool
	}{
		{name: "Valid JSON format", format: "json"},
		{name: "Valid CSV format", format: "csv"},
		{name: "Invalid format - xml", format: "xml", expectError: true},
		{name: "Invalid format - empty", format: "", expectError: true},
		{name: "Invalid format - uppercase", format: "JSON", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.IsValidOutputFormat(tt.format)
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported output format")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
