package perf

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mkurnosov/webpulse/internal/domain"
	"github.com/mkurnosov/webpulse/internal/ports"
)

const (
	defaultCheckInterval = time.Second
	defaultRetryDelay    = 20 * time.Millisecond
	defaultRetries       = 5
)

// Aggregator owns the live counter set and folds its readings into one
// shared Snapshot. Counter subscriptions are built lazily on first use and
// rebuilt when the host topology drifts; refresh happens on every call,
// drift-checking only once per check interval.
type Aggregator struct {
	provider ports.CounterProvider
	procs    ports.ProcessLister
	logger   *zap.Logger

	checkInterval time.Duration
	retryDelay    time.Duration
	retries       int
	now           func() time.Time

	mu         sync.Mutex
	set        *CounterSet
	snap       *domain.Snapshot
	workerPIDs []int32
	allPIDs    []int32
	serverCnt  int
	lastCalc   time.Time
}

// Option tweaks aggregator behavior; the defaults are the production values.
type Option func(*Aggregator)

// WithLogger attaches a zap logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// WithCheckInterval overrides how often the drift check may run.
func WithCheckInterval(d time.Duration) Option {
	return func(a *Aggregator) { a.checkInterval = d }
}

// WithRetryDelay overrides the pause before a rebuild-and-retry.
func WithRetryDelay(d time.Duration) Option {
	return func(a *Aggregator) { a.retryDelay = d }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// New creates an Aggregator over the given collaborators. No counters are
// resolved until the first GetSnapshot call.
func New(provider ports.CounterProvider, procs ports.ProcessLister, opts ...Option) *Aggregator {
	a := &Aggregator{
		provider:      provider,
		procs:         procs,
		logger:        zap.NewNop(),
		checkInterval: defaultCheckInterval,
		retryDelay:    defaultRetryDelay,
		retries:       defaultRetries,
		now:           time.Now,
		snap:          &domain.Snapshot{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetSnapshot runs one refresh cycle and returns the shared snapshot. The
// returned pointer stays valid across calls and is mutated in place; callers
// needing isolation across field reads must copy it. Counter-level failures
// are absorbed by bounded retry; only unrecoverable collaborator errors and
// the final exhausted-retry refresh error surface here.
func (a *Aggregator) GetSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.calculate(ctx); err != nil {
		return nil, err
	}
	return a.snap, nil
}

// Close releases the current counter set. The aggregator re-initializes on
// the next GetSnapshot call.
func (a *Aggregator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.set == nil {
		return nil
	}
	err := a.set.Close()
	a.set = nil
	return err
}

func (a *Aggregator) calculate(ctx context.Context) error {
	if a.set == nil {
		if err := a.initialize(ctx); err != nil {
			return err
		}
	}

	if a.now().Sub(a.lastCalc) >= a.checkInterval {
		changed, err := a.hasChanged(ctx)
		if err != nil {
			return err
		}
		if changed {
			a.logger.Info("topology drift detected, rebuilding counter set")
			if err := a.reset(ctx); err != nil {
				return err
			}
		}
	}

	if a.set.Len() > 0 {
		if err := a.query(ctx); err != nil {
			return err
		}
	}

	*a.snap = fold(a.set, len(a.workerPIDs))
	a.lastCalc = a.now()
	return nil
}

// initialize captures the process topology and resolves the full counter
// membership from it in one pass: memory and cache singletons, per-worker
// process counters, and the per-site/per-worker server counters.
func (a *Aggregator) initialize(ctx context.Context) error {
	workers, err := a.procs.WorkerPIDs(ctx)
	if err != nil {
		return fmt.Errorf("list worker processes: %w", err)
	}
	slices.Sort(workers)

	all, err := a.procs.AllPIDs(ctx)
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}
	slices.Sort(all)

	var members []ports.Counter
	ok := false
	defer func() {
		if !ok {
			closeCounters(members)
		}
	}()

	for _, cat := range []string{domain.CategoryMemory, domain.CategoryCache} {
		cs, err := a.provider.SingletonCounters(ctx, cat)
		if err != nil {
			return fmt.Errorf("resolve %s counters: %w", cat, err)
		}
		members = append(members, cs...)
	}

	procCounters, err := a.provider.ProcessCounters(ctx, workers)
	if err != nil {
		return fmt.Errorf("resolve process counters: %w", err)
	}
	members = append(members, procCounters...)

	server, err := a.serverCounters(ctx)
	if err != nil {
		return err
	}
	members = append(members, server...)

	next := NewCounterSet(members)
	if a.set != nil {
		_ = a.set.Close()
	}
	a.set = next
	a.workerPIDs = workers
	a.allPIDs = all
	a.serverCnt = len(server)
	ok = true

	a.logger.Debug("counter set initialized",
		zap.Int("counters", next.Len()),
		zap.Int("workers", len(workers)),
	)
	return nil
}

// reset disposes the current counter set and rebuilds from scratch.
func (a *Aggregator) reset(ctx context.Context) error {
	if a.set != nil {
		_ = a.set.Close()
		a.set = nil
	}
	return a.initialize(ctx)
}

// hasChanged is the two-stage drift check. Process churn that leaves the
// worker set intact is not drift; a changed server-counter cardinality is
// drift even with identical process ids (a site can appear without a new
// process).
func (a *Aggregator) hasChanged(ctx context.Context) (bool, error) {
	all, err := a.procs.AllPIDs(ctx)
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}
	slices.Sort(all)

	if !slices.Equal(all, a.allPIDs) {
		workers, err := a.procs.WorkerPIDs(ctx)
		if err != nil {
			return false, fmt.Errorf("list worker processes: %w", err)
		}
		slices.Sort(workers)
		if !slices.Equal(workers, a.workerPIDs) {
			return true, nil
		}
	}

	server, err := a.serverCounters(ctx)
	if err != nil {
		return false, err
	}
	closeCounters(server)
	return len(server) != a.serverCnt, nil
}

// query refreshes the counter set, absorbing vanished-instance failures by
// rebuilding and retrying a bounded number of times. The final attempt is
// unguarded: its error reaches the caller, signaling sustained instability
// rather than a transient race.
func (a *Aggregator) query(ctx context.Context) error {
	for attempt := 0; attempt < a.retries; attempt++ {
		err := a.set.Refresh(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrCounterNotFound) {
			return err
		}
		a.logger.Warn("refresh raced with instance teardown, rebuilding",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if err := sleep(ctx, a.retryDelay); err != nil {
			return err
		}
		if err := a.reset(ctx); err != nil {
			return err
		}
	}
	return a.set.Refresh(ctx)
}

// serverCounters resolves every counter bound to a site or worker-process
// instance currently present in the counter namespace.
func (a *Aggregator) serverCounters(ctx context.Context) ([]ports.Counter, error) {
	var out []ports.Counter
	for _, cat := range []string{domain.CategorySite, domain.CategoryWorkerProcess} {
		instances, err := a.provider.Instances(ctx, cat)
		if err != nil {
			closeCounters(out)
			return nil, fmt.Errorf("enumerate %s instances: %w", cat, err)
		}
		for _, inst := range instances {
			cs, err := a.provider.Counters(ctx, cat, inst)
			if err != nil {
				closeCounters(out)
				return nil, fmt.Errorf("resolve %s counters for %q: %w", cat, inst, err)
			}
			out = append(out, cs...)
		}
	}
	return out, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
