// Package persistence handles saving and loading engine state. Gob is the
// format for index data, JSON for data worth reading by hand. All writes
// go through a temp file and a rename so readers never see partial files.
package persistence

import (
	"encoding/gob"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// SaveGob gob-encodes object and writes it to filePath atomically: the
// bytes land in a temp file that replaces the target in a single rename,
// so a crash mid-write never leaves a truncated file behind. Missing
// parent directories are created.
func SaveGob(filePath string, object interface{}) error {
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

	if err := gob.NewEncoder(pending).Encode(object); err != nil {
		return fmt.Errorf("failed to gob encode to file %s: %w", filePath, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to replace file %s: %w", filePath, err)
	}
	return nil
}

// LoadGob decodes the gob file at filePath into objectPointer, which must
// point at the type that was encoded. A missing file comes back as
// os.ErrNotExist so callers can treat it as a fresh start.
func LoadGob(filePath string, objectPointer interface{}) error {
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

	if err := gob.NewDecoder(file).Decode(objectPointer); err != nil {
		return fmt.Errorf("failed to gob decode from file %s: %w", filePath, err)
	}
	return nil
}
