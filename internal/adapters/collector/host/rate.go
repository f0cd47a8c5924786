package host

import (
	"context"
	"sync"
	"time"
)

// rateCounter turns a cumulative sample into a per-second rate between
// consecutive reads. The first read after construction reports zero, and a
// sample going backwards (source reset) also reports zero.
type rateCounter struct {
	funcCounter
	sample func(ctx context.Context) (uint64, error)
	now    func() time.Time

	mu     sync.Mutex
	primed bool
	last   uint64
	lastAt time.Time
}

func newRateCounter(category, name, instance string, sample func(ctx context.Context) (uint64, error)) *rateCounter {
	c := &rateCounter{
		funcCounter: funcCounter{category: category, name: name, instance: instance},
		sample:      sample,
		now:         time.Now,
	}
	c.funcCounter.read = c.readRate
	return c
}

func (c *rateCounter) readRate(ctx context.Context) (int64, error) {
	v, err := c.sample(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	defer func() {
		c.primed = true
		c.last = v
		c.lastAt = now
	}()

	if !c.primed {
		return 0, nil
	}
	dt := now.Sub(c.lastAt).Seconds()
	if dt <= 0 || v < c.last {
		return 0, nil
	}
	return int64(float64(v-c.last) / dt), nil
}
