// Package ports declares the interfaces between the snapshot engine and its
// collaborators.
package ports

import "context"

// Counter is a refreshable handle on one named, instance-scoped metric.
// Read samples the current value; it fails with domain.ErrCounterNotFound
// when the instance the counter was bound to has vanished. Close releases
// any underlying subscription and must be safe to call once per counter.
type Counter interface {
	Category() string
	Name() string
	Instance() string
	Read(ctx context.Context) (int64, error)
	Close() error
}

// CounterProvider enumerates and resolves counters for a category. A
// category the provider cannot serve on this host yields empty results, not
// an error; errors are reserved for unrecoverable enumeration failures
// (permissions, subsystem unavailable) and are never retried by the engine.
type CounterProvider interface {
	// Instances lists the instance names currently registered for a
	// multi-instance category.
	Instances(ctx context.Context, category string) ([]string, error)
	// Counters resolves every counter of the category bound to the given
	// instance.
	Counters(ctx context.Context, category, instance string) ([]Counter, error)
	// SingletonCounters resolves the counters of a category that has no
	// instance dimension.
	SingletonCounters(ctx context.Context, category string) ([]Counter, error)
	// ProcessCounters resolves the Process-category counters for each of
	// the given process ids.
	ProcessCounters(ctx context.Context, pids []int32) ([]Counter, error)
}

// ProcessLister reports the host process topology. AllPIDs exists so the
// engine can detect process churn cheaply before paying for the worker
// classification.
type ProcessLister interface {
	AllPIDs(ctx context.Context) ([]int32, error)
	WorkerPIDs(ctx context.Context) ([]int32, error)
}
