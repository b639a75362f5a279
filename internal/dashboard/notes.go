package dashboard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// NoteStore keeps the operator's scratchpad in a local text file.
type NoteStore struct {
	path string
}

func NewNoteStore(path string) *NoteStore {
	return &NoteStore{path: path}
}

// Load returns the saved notes, or "" when nothing was saved yet.
func (n *NoteStore) Load() (string, error) {
	data, err := os.ReadFile(n.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("notes: read %s: %w", n.path, err)
	}
	return string(data), nil
}

// Save writes through a temp file and renames it over the old notes.
func (n *NoteStore) Save(text string) error {
	dir := filepath.Dir(n.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("notes: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".notes-*")
	if err != nil {
		return fmt.Errorf("notes: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("notes: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("notes: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), n.path); err != nil {
		return fmt.Errorf("notes: %w", err)
	}
	return nil
}
