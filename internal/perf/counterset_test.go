package perf

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mkurnosov/webpulse/internal/domain"
	"github.com/mkurnosov/webpulse/internal/ports"
)

type flakyCounter struct {
	stubCounter
	mu   sync.Mutex
	fail bool
}

func (c *flakyCounter) Read(ctx context.Context) (int64, error) {
	c.mu.Lock()
	fail := c.fail
	c.mu.Unlock()
	if fail {
		return 0, domain.ErrCounterNotFound
	}
	return c.stubCounter.Read(ctx)
}

func (c *flakyCounter) setFail(v bool) {
	c.mu.Lock()
	c.fail = v
	c.mu.Unlock()
}

func TestCounterSet_RefreshAllOrNothing(t *testing.T) {
	t.Parallel()

	good := &stubCounter{category: domain.CategoryMemory, name: domain.CounterAvailableBytes, value: 11}
	bad := &flakyCounter{
		stubCounter: stubCounter{category: domain.CategoryProcess, name: domain.CounterThreadCount, value: 4},
		fail:        true,
	}
	set := NewCounterSet([]ports.Counter{good, bad})

	err := set.Refresh(context.Background())
	if !errors.Is(err, domain.ErrCounterNotFound) {
		t.Fatalf("err=%v want ErrCounterNotFound", err)
	}
	// The failed pass must not have committed the good counter's reading.
	if _, v := set.At(0); v != 0 {
		t.Errorf("value committed on failed refresh: %d", v)
	}

	bad.setFail(false)
	if err := set.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, v := set.At(0); v != 11 {
		t.Errorf("values[0]=%d want 11", v)
	}
	if _, v := set.At(1); v != 4 {
		t.Errorf("values[1]=%d want 4", v)
	}
}

func TestCounterSet_CloseReleasesAllMembers(t *testing.T) {
	t.Parallel()

	stats := &tally{}
	set := NewCounterSet([]ports.Counter{
		&stubCounter{category: domain.CategoryMemory, name: domain.CounterAvailableBytes, stats: stats},
		&stubCounter{category: domain.CategoryCache, name: domain.CounterFileCacheHits, stats: stats},
	})
	if err := set.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := stats.Closes(); got != 2 {
		t.Errorf("closed=%d want 2", got)
	}
}

func TestCounterSet_Empty(t *testing.T) {
	t.Parallel()

	set := NewCounterSet(nil)
	if set.Len() != 0 {
		t.Fatalf("Len=%d want 0", set.Len())
	}
	if err := set.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := set.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
