package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"kings-scraper/models"
)

// JSONWriter writes the run's output document to a JSON file. The write is
// atomic: the document lands in a temp file in the destination directory and
// is renamed into place, so a crash mid-write never leaves a truncated file.
type JSONWriter struct {
	path string
}

// NewJSONWriter prepares a writer for the given path. Intermediate
// directories are created automatically.
func NewJSONWriter(path string) (*JSONWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("json: create output dir: %w", err)
	}
	return &JSONWriter{path: path}, nil
}

// Write serializes the document and atomically replaces the output file.
func (w *JSONWriter) Write(doc *models.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("json: marshal document: %w", err)
	}

	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, ".kings-*.json")
	if err != nil {
		return fmt.Errorf("json: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("json: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("json: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, w.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("json: replace %q: %w", w.path, err)
	}
	return nil
}

// Close implements DocumentWriter; the writer holds no open resources
// between runs.
func (w *JSONWriter) Close() error {
	return nil
}
