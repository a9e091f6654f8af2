package perf

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

const exportFilename = "mcarch-perf.json"

// ExportToFile writes the spans as JSON to <outDir>/mcarch-perf.json and returns
// the written path. The file is a diagnostic aid; callers treat errors as
// non-fatal.
func ExportToFile(fs afero.Fs, outDir string, spans []SpanSnapshot) (string, error) {
	if outDir == "" {
		outDir = "."
	}
	if err := fs.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create perf output directory: %w", err)
	}

	data, err := json.MarshalIndent(spans, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(outDir, exportFilename)
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write perf export: %w", err)
	}
	return path, nil
}
