package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mkurnosov/webpulse/internal/domain"
)

func entryAt(sec int64, handles int64) domain.HistoryEntry {
	return domain.HistoryEntry{
		TakenAt:  time.Unix(sec, 0).UTC(),
		Snapshot: domain.Snapshot{HandleCount: handles},
	}
}

func TestRepo_LatestAndRange(t *testing.T) {
	t.Parallel()

	r := New(0)
	ctx := context.Background()

	if _, err := r.Latest(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Latest on empty: %v", err)
	}

	for i := int64(1); i <= 5; i++ {
		if err := r.Insert(ctx, entryAt(i*10, i)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	last, err := r.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if last.Snapshot.HandleCount != 5 {
		t.Errorf("Latest HandleCount=%d want 5", last.Snapshot.HandleCount)
	}

	got, err := r.Range(ctx, time.Unix(30, 0).UTC(), 0)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Range len=%d want 3", len(got))
	}
	// Newest first.
	if got[0].Snapshot.HandleCount != 5 || got[2].Snapshot.HandleCount != 3 {
		t.Errorf("unexpected order: %+v", got)
	}

	limited, err := r.Range(ctx, time.Time{}, 2)
	if err != nil {
		t.Fatalf("Range limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited len=%d want 2", len(limited))
	}
}

func TestRepo_Eviction(t *testing.T) {
	t.Parallel()

	r := New(3)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		if err := r.Insert(ctx, entryAt(i, i)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	got, err := r.Range(ctx, time.Time{}, 0)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len=%d want 3 after eviction", len(got))
	}
	if got[len(got)-1].Snapshot.HandleCount != 3 {
		t.Errorf("oldest surviving entry=%d want 3", got[len(got)-1].Snapshot.HandleCount)
	}
}

func TestRepo_Ping(t *testing.T) {
	t.Parallel()

	if err := New(0).Ping(context.Background()); err == nil {
		t.Error("Ping must report no real database")
	}
}
