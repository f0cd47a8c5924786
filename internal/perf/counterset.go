// Package perf implements the snapshot refresh engine: counter set lifetime,
// topology drift detection, bounded retry, and the fold of raw counter
// readings into the aggregate snapshot.
package perf

import (
	"context"
	"fmt"

	"github.com/mkurnosov/webpulse/internal/ports"
)

// CounterSet holds a fixed collection of counters resolved from one topology
// pass. Membership never changes after construction; only the staged values
// do. Refresh is all-or-nothing: when any member read fails, no value is
// committed.
type CounterSet struct {
	members []ports.Counter
	values  []int64
	scratch []int64
}

// NewCounterSet builds a set over the given counters. The set takes
// ownership: Close releases every member.
func NewCounterSet(counters []ports.Counter) *CounterSet {
	return &CounterSet{
		members: counters,
		values:  make([]int64, len(counters)),
		scratch: make([]int64, len(counters)),
	}
}

// Len reports the number of member counters.
func (s *CounterSet) Len() int {
	return len(s.members)
}

// At returns the i-th member and its last committed value.
func (s *CounterSet) At(i int) (ports.Counter, int64) {
	return s.members[i], s.values[i]
}

// Refresh reads every member and commits the new values only if all reads
// succeed. A read failing with domain.ErrCounterNotFound is reported as-is
// so the caller can distinguish vanished instances from fatal errors.
func (s *CounterSet) Refresh(ctx context.Context) error {
	for i, c := range s.members {
		v, err := c.Read(ctx)
		if err != nil {
			return fmt.Errorf("refresh %s/%s[%s]: %w", c.Category(), c.Name(), c.Instance(), err)
		}
		s.scratch[i] = v
	}
	copy(s.values, s.scratch)
	return nil
}

// Close releases every member counter, returning the first error seen.
func (s *CounterSet) Close() error {
	var first error
	for _, c := range s.members {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func closeCounters(counters []ports.Counter) {
	for _, c := range counters {
		_ = c.Close()
	}
}
