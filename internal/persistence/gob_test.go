package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type payload struct {
	Name   string
	Values map[string][]uint32
}

func TestSaveAndLoadGob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "index.gob")

	saved := payload{
		Name:   "movies",
		Values: map[string][]uint32{"published": {0, 2, 5}},
	}
	if err := SaveGob(path, saved); err != nil {
		t.Fatalf("SaveGob() error = %v", err)
	}

	var loaded payload
	if err := LoadGob(path, &loaded); err != nil {
		t.Fatalf("LoadGob() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, saved) {
		t.Errorf("Expected %+v back, got %+v", saved, loaded)
	}
}

func TestSaveGobOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.gob")

	if err := SaveGob(path, payload{Name: "first"}); err != nil {
		t.Fatalf("SaveGob() error = %v", err)
	}
	if err := SaveGob(path, payload{Name: "second"}); err != nil {
		t.Fatalf("SaveGob() overwrite error = %v", err)
	}

	var loaded payload
	if err := LoadGob(path, &loaded); err != nil {
		t.Fatalf("LoadGob() error = %v", err)
	}
	if loaded.Name != "second" {
		t.Errorf("Expected the second write to win, got %q", loaded.Name)
	}

	// No temp files may linger next to the target
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the target file in the directory, got %d entries", len(entries))
	}
}

func TestLoadGobMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.gob")

	var loaded payload
	err := LoadGob(path, &loaded)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist for a missing file, got %v", err)
	}
}

func TestLoadGobCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.gob")
	if err := os.WriteFile(path, []byte("not a gob stream"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var loaded payload
	if err := LoadGob(path, &loaded); err == nil {
		t.Error("Expected an error decoding a corrupt file")
	}
}
