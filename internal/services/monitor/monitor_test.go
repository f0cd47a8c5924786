package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mkurnosov/webpulse/internal/domain"
)

type fakeSource struct {
	mu   sync.Mutex
	snap domain.Snapshot
	err  error
}

func (f *fakeSource) GetSnapshot(context.Context) (*domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &f.snap, nil
}

type fakeHistory struct {
	mu        sync.Mutex
	inserted  []domain.HistoryEntry
	insertErr error
	pingErr   error
}

func (f *fakeHistory) Insert(_ context.Context, e domain.HistoryEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, e)
	return nil
}

func (f *fakeHistory) Latest(context.Context) (domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inserted) == 0 {
		return domain.HistoryEntry{}, domain.ErrNotFound
	}
	return f.inserted[len(f.inserted)-1], nil
}

func (f *fakeHistory) Range(context.Context, time.Time, int) ([]domain.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.HistoryEntry(nil), f.inserted...), nil
}

func (f *fakeHistory) Ping(context.Context) error {
	return f.pingErr
}

func TestService_SnapshotCopiesAndPersists(t *testing.T) {
	t.Parallel()

	src := &fakeSource{snap: domain.Snapshot{HandleCount: 10}}
	hist := &fakeHistory{}
	svc := New(src, hist, zap.NewNop())

	entry, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if entry.Snapshot.HandleCount != 10 {
		t.Errorf("HandleCount=%d want 10", entry.Snapshot.HandleCount)
	}

	// The engine mutates its shared snapshot in place; the entry must be
	// an isolated copy.
	src.mu.Lock()
	src.snap.HandleCount = 99
	src.mu.Unlock()
	if entry.Snapshot.HandleCount != 10 {
		t.Errorf("entry mutated along with source: %d", entry.Snapshot.HandleCount)
	}

	hist.mu.Lock()
	defer hist.mu.Unlock()
	if len(hist.inserted) != 1 {
		t.Fatalf("inserted=%d want 1", len(hist.inserted))
	}
}

func TestService_HistoryInsertFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	src := &fakeSource{snap: domain.Snapshot{ThreadCount: 3}}
	hist := &fakeHistory{insertErr: errors.New("db down")}
	svc := New(src, hist, zap.NewNop())

	entry, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot must not fail on history errors: %v", err)
	}
	if entry.Snapshot.ThreadCount != 3 {
		t.Errorf("ThreadCount=%d want 3", entry.Snapshot.ThreadCount)
	}
}

func TestService_SourceErrorPropagates(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("enumeration failed")
	svc := New(&fakeSource{err: wantErr}, &fakeHistory{}, zap.NewNop())

	if _, err := svc.Snapshot(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("err=%v want %v", err, wantErr)
	}
}

func TestService_NoHistoryConfigured(t *testing.T) {
	t.Parallel()

	svc := New(&fakeSource{}, nil, zap.NewNop())
	ctx := context.Background()

	if _, err := svc.Snapshot(ctx); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if _, err := svc.Latest(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Latest err=%v want ErrNotFound", err)
	}
	if _, err := svc.History(ctx, time.Time{}, 0); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("History err=%v want ErrNotFound", err)
	}
	if err := svc.Ping(ctx); err == nil {
		t.Error("Ping must fail without history backend")
	}
}
