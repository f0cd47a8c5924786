// Package memory implements an in-memory snapshot history ring.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mkurnosov/webpulse/internal/domain"
	"github.com/mkurnosov/webpulse/internal/ports"
)

const defaultCapacity = 1024

// Repo keeps the most recent snapshots in a fixed-capacity ring with
// coarse-grained RW locking.
type Repo struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
	cap     int
}

var _ ports.HistoryRepo = (*Repo)(nil)

// New returns an empty history ring; cap <= 0 selects the default capacity.
func New(capacity int) *Repo {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Repo{cap: capacity}
}

// Insert appends an entry, evicting the oldest once the ring is full.
func (r *Repo) Insert(_ context.Context, e domain.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	if len(r.entries) > r.cap {
		r.entries = r.entries[len(r.entries)-r.cap:]
	}
	return nil
}

// Latest returns the newest entry or domain.ErrNotFound.
func (r *Repo) Latest(_ context.Context) (domain.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.entries) == 0 {
		return domain.HistoryEntry{}, domain.ErrNotFound
	}
	return r.entries[len(r.entries)-1], nil
}

// Range returns entries taken at or after since, newest first, capped at
// limit (limit <= 0 means no cap).
func (r *Repo) Range(_ context.Context, since time.Time, limit int) ([]domain.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.HistoryEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.TakenAt.Before(since) {
			break
		}
		out = append(out, e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Ping reports that the ring is not backed by a real database.
func (*Repo) Ping(context.Context) error {
	return errors.New("db not configured")
}
