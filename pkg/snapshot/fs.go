package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirectorySink stores archives as files in one local directory.
//
// Put writes to a ".partial" temporary file and renames it into place,
// so a crash mid-write never leaves a half archive under a real archive
// name. List filters on the archive extension, so leftover partials and
// unrelated files are invisible.
type DirectorySink struct {
	dir string
}

// NewDirectorySink creates the directory if needed and returns a sink
// over it.
func NewDirectorySink(dir string) (*DirectorySink, error) {
	if dir == "" {
		return nil, fmt.Errorf("snapshot directory is required")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory %q: %w", dir, err)
	}

	return &DirectorySink{dir: dir}, nil
}

// Put stores an archive, replacing any existing file with that name.
func (s *DirectorySink) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.resolve(name)
	if err != nil {
		return err
	}

	partial := target + ".partial"
	if err := os.WriteFile(partial, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %q: %w", name, err)
	}

	if err := os.Rename(partial, target); err != nil {
		os.Remove(partial)
		return fmt.Errorf("finalize snapshot %q: %w", name, err)
	}

	return nil
}

// Get returns the named archive.
func (s *DirectorySink) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%q: %w", name, ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %q: %w", name, err)
	}

	return data, nil
}

// List returns all archive names in the directory, sorted ascending.
func (s *DirectorySink) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	// os.ReadDir returns entries sorted by name, which is the contract
	// order.
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsArchiveName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}

	return names, nil
}

// resolve rejects names that would escape the sink directory.
func (s *DirectorySink) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid snapshot name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}
