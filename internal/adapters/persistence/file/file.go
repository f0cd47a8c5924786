// Package file persists the most recent snapshot to a JSON file so the API
// has something to serve right after a restart.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkurnosov/webpulse/internal/domain"
	"github.com/mkurnosov/webpulse/internal/ports"
)

type Persister struct {
	path string
}

var _ ports.Persister = (*Persister)(nil)

func New(path string) *Persister {
	return &Persister{path: path}
}

// Save writes the entry atomically (temp file + rename).
func (p *Persister) Save(_ context.Context, e domain.HistoryEntry) (retErr error) {
	dir := filepath.Dir(p.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := true
	closed := false
	defer func() {
		if !closed {
			if cerr := tmp.Close(); cerr != nil && retErr == nil {
				retErr = fmt.Errorf("close tmp: %w", cerr)
			}
			closed = true
		}
		if cleanup {
			if err := os.Remove(tmpName); err != nil && retErr == nil {
				retErr = fmt.Errorf("remove tmp: %w", err)
			}
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		closed = true
		return fmt.Errorf("close tmp: %w", err)
	}
	closed = true
	if err := os.Rename(tmpName, p.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	cleanup = false
	return nil
}

// Load reads the last saved entry; a missing file maps to domain.ErrNotFound.
func (p *Persister) Load(_ context.Context) (e domain.HistoryEntry, retErr error) {
	f, err := os.Open(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.HistoryEntry{}, domain.ErrNotFound
		}
		return domain.HistoryEntry{}, fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close: %w", cerr)
		}
	}()

	if err := json.NewDecoder(f).Decode(&e); err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("decode: %w", err)
	}
	return e, nil
}
