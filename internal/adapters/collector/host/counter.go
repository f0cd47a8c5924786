// Package host implements the counter provider and process lister on top of
// gopsutil, covering the categories a generic host can serve: per-process
// resources, system memory, and aggregate network throughput. Categories
// that need server-side instrumentation (per-site counters, content caches)
// resolve empty here and come from a server-specific provider.
package host

import (
	"context"
	"errors"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/mkurnosov/webpulse/internal/domain"
)

// funcCounter is a counter whose Read delegates to a sampling closure.
type funcCounter struct {
	category string
	name     string
	instance string
	read     func(ctx context.Context) (int64, error)
}

func (c *funcCounter) Category() string { return c.category }
func (c *funcCounter) Name() string     { return c.name }
func (c *funcCounter) Instance() string { return c.instance }
func (c *funcCounter) Close() error     { return nil }

func (c *funcCounter) Read(ctx context.Context) (int64, error) {
	return c.read(ctx)
}

// mapProcErr converts a vanished-process error into the distinguished
// condition the engine rebuilds on. Other failures pass through untouched.
func mapProcErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, process.ErrorProcessNotRunning) {
		return domain.ErrCounterNotFound
	}
	return err
}
