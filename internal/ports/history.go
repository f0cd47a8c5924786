package ports

import (
	"context"
	"time"

	"github.com/mkurnosov/webpulse/internal/domain"
)

// HistoryRepo stores sampled snapshots for trend queries.
type HistoryRepo interface {
	Insert(ctx context.Context, e domain.HistoryEntry) error
	Latest(ctx context.Context) (domain.HistoryEntry, error)
	Range(ctx context.Context, since time.Time, limit int) ([]domain.HistoryEntry, error)
	Ping(ctx context.Context) error
}

// Persister saves and restores the most recent snapshot across restarts.
type Persister interface {
	Save(ctx context.Context, e domain.HistoryEntry) error
	Load(ctx context.Context) (domain.HistoryEntry, error)
}
