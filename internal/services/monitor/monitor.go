// Package monitor wraps the snapshot aggregator behind a service that hands
// out isolated copies and feeds the history store.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mkurnosov/webpulse/internal/domain"
	"github.com/mkurnosov/webpulse/internal/ports"
)

// SnapshotSource is the engine-side contract the service consumes.
type SnapshotSource interface {
	GetSnapshot(ctx context.Context) (*domain.Snapshot, error)
}

// Service serializes snapshot requests and copies the shared snapshot so API
// consumers never observe in-place mutation. When a history repository is
// configured, each successful sample is appended to it.
type Service struct {
	src     SnapshotSource
	history ports.HistoryRepo
	logger  *zap.Logger
	now     func() time.Time

	mu sync.Mutex
}

// New wires the aggregator and an optional history repository (nil disables
// persistence).
func New(src SnapshotSource, history ports.HistoryRepo, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{src: src, history: history, logger: logger, now: time.Now}
}

// Snapshot runs one refresh cycle and returns an isolated copy. A history
// write failure is logged, not surfaced: the live reading is still good.
func (s *Service) Snapshot(ctx context.Context) (domain.HistoryEntry, error) {
	s.mu.Lock()
	snap, err := s.src.GetSnapshot(ctx)
	if err != nil {
		s.mu.Unlock()
		return domain.HistoryEntry{}, err
	}
	entry := domain.HistoryEntry{TakenAt: s.now().UTC(), Snapshot: *snap}
	s.mu.Unlock()

	if s.history != nil {
		if err := s.history.Insert(ctx, entry); err != nil {
			s.logger.Warn("history insert failed", zap.Error(err))
		}
	}
	return entry, nil
}

// History returns persisted snapshots taken at or after since, newest first.
func (s *Service) History(ctx context.Context, since time.Time, limit int) ([]domain.HistoryEntry, error) {
	if s.history == nil {
		return nil, domain.ErrNotFound
	}
	return s.history.Range(ctx, since, limit)
}

// Latest returns the most recently persisted snapshot.
func (s *Service) Latest(ctx context.Context) (domain.HistoryEntry, error) {
	if s.history == nil {
		return domain.HistoryEntry{}, domain.ErrNotFound
	}
	return s.history.Latest(ctx)
}

// Ping reports the health of the history backend.
func (s *Service) Ping(ctx context.Context) error {
	if s.history == nil {
		return errors.New("history not configured")
	}
	return s.history.Ping(ctx)
}
