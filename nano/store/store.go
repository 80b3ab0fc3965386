// Package store persists designs as JSON documents.
//
// Documents are written atomically (temporary file, sync, rename) so a crash
// never leaves a half-written design behind. Loading is all-or-nothing: a
// document either decodes into a valid design or fails with an error wrapping
// design.ErrSerialization.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"icednano/nano/design"
)

// FilePrefix and FileExt frame default file names.
const (
	FilePrefix = "icednano"
	FileExt    = ".json"
	timeLayout = "2006-01-02_15-04-05"
)

// FileName is the default document name for a save at t.
func FileName(t time.Time) string {
	return FilePrefix + t.Format(timeLayout) + FileExt
}

// ResolveTarget turns a dialog result into a file path. A directory gets a
// timestamped file name inside it; anything else is used as is.
func ResolveTarget(path string, now time.Time) (string, error) {
	if path == "" {
		return "", errors.New("empty save target")
	}
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return filepath.Join(path, FileName(now)), nil
	case err == nil, errors.Is(err, fs.ErrNotExist):
		return path, nil
	default:
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
}

// Encode serializes d.
func Encode(d *design.Design) ([]byte, error) {
	data, err := json.MarshalIndent(d.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode design: %v: %w", err, design.ErrSerialization)
	}
	return append(data, '\n'), nil
}

// Decode parses a document. Unknown fields are rejected.
func Decode(data []byte) (*design.Design, error) {
	var snap design.Snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode design: %v: %w", err, design.ErrSerialization)
	}
	return design.FromSnapshot(snap)
}

// SaveFile writes d to path atomically.
func SaveFile(path string, d *design.Design) error {
	data, err := Encode(d)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

// LoadFile reads and decodes the document at path.
func LoadFile(path string) (*design.Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	d, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return d, nil
}

func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
