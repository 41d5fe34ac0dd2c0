package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"studio-cms/internal/cms/domain/model"
	apperrors "studio-cms/internal/shared/errors"
)

// BackendFile is the name reported for the local file store
const BackendFile = "file"

// FileBackend stores each collection as <dir>/<key>.json.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file store rooted at dir.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// Name returns the backend name
func (f *FileBackend) Name() string { return BackendFile }

// Dir returns the data directory
func (f *FileBackend) Dir() string { return f.dir }

// Path returns the file that holds key
func (f *FileBackend) Path(key string) string {
	return filepath.Join(f.dir, model.FileName(key))
}

// Get reads and validates the file for key. A missing file is a miss;
// content that is not valid JSON is ErrMalformedStorage.
func (f *FileBackend) Get(_ context.Context, key string) (json.RawMessage, error) {
	data, err := os.ReadFile(f.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: %w", f.Path(key), apperrors.ErrMalformedStorage)
	}
	return json.RawMessage(data), nil
}

// Set writes value pretty-printed with a 2-space indent.
func (f *FileBackend) Set(_ context.Context, key string, value json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, value, "", "  "); err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}

	// Readers never see a half-written collection: temp file, then rename.
	tmp, err := os.CreateTemp(f.dir, "."+model.StorageKey(key)+"-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.Path(key))
}

// Keys lists the collection keys that have a file on disk.
func (f *FileBackend) Keys() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(f.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(matches))
	for _, m := range matches {
		keys = append(keys, model.StorageKey(filepath.Base(m)))
	}
	return keys, nil
}

// Close is a no-op
func (f *FileBackend) Close() error { return nil }
