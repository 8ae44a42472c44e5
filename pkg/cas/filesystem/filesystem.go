// Package filesystem provides a cas.Store that writes one JSON document per
// content key under a root directory.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/papercomputeco/chatvault/pkg/cas"
)

// Store implements cas.Store on the local filesystem.
type Store struct {
	root   string
	logger *slog.Logger
}

// Config holds configuration for the filesystem store.
type Config struct {
	// Root is the directory content files are written to. Created if missing.
	Root string
}

// NewStore creates a filesystem-backed content store rooted at c.Root.
func NewStore(c Config, logger *slog.Logger) (*Store, error) {
	if c.Root == "" {
		return nil, errors.New("content root directory is required")
	}

	root, err := filepath.Abs(c.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving content root: %w", err)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating content root %s: %w", root, err)
	}

	logger.Debug("filesystem content store initialized", "root", root)

	return &Store{
		root:   root,
		logger: logger,
	}, nil
}

// Put writes turns to <root>/<key>.json. Existing keys are left untouched.
// The file is written to a temp file first and renamed into place so a
// reader never observes a partial document.
func (s *Store) Put(_ context.Context, key string, turns []cas.Turn) error {
	if err := cas.CheckKey(key); err != nil {
		return err
	}

	target := s.Locate(key)
	if _, err := os.Stat(target); err == nil {
		s.logger.Debug("content already stored", "key", key)
		return nil
	}

	data, err := json.MarshalIndent(cas.CloneTurns(turns), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling content %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.root, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing content %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing content %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing content %s: %w", key, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("moving content %s into place: %w", key, err)
	}

	s.logger.Debug("stored content", "key", key, "path", target, "turns", len(turns))
	return nil
}

// Get reads the turns stored under key.
func (s *Store) Get(_ context.Context, key string) ([]cas.Turn, error) {
	if !cas.IsKey(key) {
		return nil, cas.NotFoundError{Key: key}
	}

	data, err := os.ReadFile(s.Locate(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cas.NotFoundError{Key: key}
		}
		return nil, fmt.Errorf("reading content %s: %w", key, err)
	}

	var turns []cas.Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("decoding content %s: %w", key, err)
	}

	return cas.CloneTurns(turns), nil
}

// Has checks whether a content file exists for key.
func (s *Store) Has(_ context.Context, key string) (bool, error) {
	if !cas.IsKey(key) {
		return false, nil
	}

	_, err := os.Stat(s.Locate(key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("checking content %s: %w", key, err)
	}
}

// Locate returns the absolute path of the content file for key.
func (s *Store) Locate(key string) string {
	return filepath.Join(s.root, key+".json")
}

// Root returns the absolute content root directory.
func (s *Store) Root() string {
	return s.root
}

// Close is a no-op for the filesystem store.
func (s *Store) Close() error {
	return nil
}

var _ cas.Store = (*Store)(nil)
