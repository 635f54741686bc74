package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// SaveJSON writes object to filePath as indented JSON, with the same
// atomic temp-file-and-rename scheme as SaveGob. Used for data that
// benefits from being human-readable on disk, like analytics events.
func SaveJSON(filePath string, object interface{}) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	pending, err := renameio.TempFile("", filePath)
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", filePath, err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			log.Printf("Warning: Failed to clean up temp file for %s: %v", filePath, err)
		}
	}()

	encoder := json.NewEncoder(pending)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(object); err != nil {
		return fmt.Errorf("failed to json encode to file %s: %w", filePath, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to replace file %s: %w", filePath, err)
	}
	return nil
}

// LoadJSON decodes the JSON file at filePath into objectPointer. A missing
// file comes back as os.ErrNotExist so callers can treat it as a fresh
// start.
func LoadJSON(filePath string, objectPointer interface{}) error {
	file, err := os.Open(filePath) // #nosec G304 -- filePath is controlled by application, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Printf("Warning: Failed to close file %s: %v", filePath, err)
		}
	}()

	if err := json.NewDecoder(file).Decode(objectPointer); err != nil {
		return fmt.Errorf("failed to json decode from file %s: %w", filePath, err)
	}
	return nil
}
