package host

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
	gopsnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/mkurnosov/webpulse/internal/domain"
	"github.com/mkurnosov/webpulse/internal/ports"
)

// Provider resolves counters from gopsutil.
type Provider struct{}

var _ ports.CounterProvider = (*Provider)(nil)

// NewProvider returns a host-level counter provider.
func NewProvider() *Provider {
	return &Provider{}
}

// Instances lists the instance names of a multi-instance category. The host
// provider exposes a single aggregate Site instance backed by NIC totals;
// worker-process request counters need server instrumentation it does not
// have.
func (p *Provider) Instances(_ context.Context, category string) ([]string, error) {
	if category == domain.CategorySite {
		return []string{domain.TotalInstance}, nil
	}
	return nil, nil
}

// Counters resolves the counters of a category bound to one instance.
func (p *Provider) Counters(_ context.Context, category, instance string) ([]ports.Counter, error) {
	if category != domain.CategorySite || instance != domain.TotalInstance {
		return nil, nil
	}
	return []ports.Counter{
		newRateCounter(category, domain.CounterBytesSentSec, instance, nicTotal(func(io gopsnet.IOCountersStat) uint64 {
			return io.BytesSent
		})),
		newRateCounter(category, domain.CounterBytesRecvSec, instance, nicTotal(func(io gopsnet.IOCountersStat) uint64 {
			return io.BytesRecv
		})),
	}, nil
}

// SingletonCounters resolves categories without an instance dimension.
func (p *Provider) SingletonCounters(_ context.Context, category string) ([]ports.Counter, error) {
	if category != domain.CategoryMemory {
		return nil, nil
	}
	return []ports.Counter{
		&funcCounter{
			category: category,
			name:     domain.CounterAvailableBytes,
			read: func(ctx context.Context) (int64, error) {
				vm, err := mem.VirtualMemoryWithContext(ctx)
				if err != nil {
					return 0, fmt.Errorf("virtual memory: %w", err)
				}
				return int64(vm.Available), nil
			},
		},
	}, nil
}

// ProcessCounters resolves the Process-category counters for each pid. A
// pid that exited between listing and resolution is skipped; the drift check
// reconciles the worker set on the next interval.
func (p *Provider) ProcessCounters(ctx context.Context, pids []int32) ([]ports.Counter, error) {
	var out []ports.Counter
	for _, pid := range pids {
		proc, err := process.NewProcessWithContext(ctx, pid)
		if err != nil {
			continue
		}
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			continue
		}
		out = append(out, processCounters(proc, fmt.Sprintf("%s_%d", name, pid))...)
	}
	return out, nil
}

func nicTotal(pick func(gopsnet.IOCountersStat) uint64) func(ctx context.Context) (uint64, error) {
	return func(ctx context.Context) (uint64, error) {
		stats, err := gopsnet.IOCountersWithContext(ctx, false)
		if err != nil {
			return 0, fmt.Errorf("nic counters: %w", err)
		}
		var total uint64
		for _, s := range stats {
			total += pick(s)
		}
		return total, nil
	}
}

func processCounters(proc *process.Process, instance string) []ports.Counter {
	gauge := func(name string, read func(ctx context.Context) (int64, error)) ports.Counter {
		return &funcCounter{
			category: domain.CategoryProcess,
			name:     name,
			instance: instance,
			read:     read,
		}
	}
	rate := func(name string, sample func(ctx context.Context) (uint64, error)) ports.Counter {
		return newRateCounter(domain.CategoryProcess, name, instance, sample)
	}

	return []ports.Counter{
		gauge(domain.CounterPercentCPU, func(ctx context.Context) (int64, error) {
			// CPUPercent reports usage since the previous call on the
			// same Process handle.
			pct, err := proc.CPUPercentWithContext(ctx)
			if err != nil {
				return 0, mapProcErr(err)
			}
			return int64(pct + 0.5), nil
		}),
		gauge(domain.CounterHandleCount, func(ctx context.Context) (int64, error) {
			n, err := proc.NumFDsWithContext(ctx)
			if err != nil {
				return 0, mapProcErr(err)
			}
			return int64(n), nil
		}),
		gauge(domain.CounterThreadCount, func(ctx context.Context) (int64, error) {
			n, err := proc.NumThreadsWithContext(ctx)
			if err != nil {
				return 0, mapProcErr(err)
			}
			return int64(n), nil
		}),
		gauge(domain.CounterPrivateBytes, func(ctx context.Context) (int64, error) {
			mi, err := proc.MemoryInfoWithContext(ctx)
			if err != nil {
				return 0, mapProcErr(err)
			}
			return int64(mi.VMS), nil
		}),
		gauge(domain.CounterWorkingSet, func(ctx context.Context) (int64, error) {
			mi, err := proc.MemoryInfoWithContext(ctx)
			if err != nil {
				return 0, mapProcErr(err)
			}
			return int64(mi.RSS), nil
		}),
		gauge(domain.CounterPrivateWorkingSet, func(ctx context.Context) (int64, error) {
			// Resident minus shared where the platform exposes it,
			// plain resident otherwise.
			if ex, err := proc.MemoryInfoExWithContext(ctx); err == nil && ex.RSS >= ex.Shared {
				return int64(ex.RSS - ex.Shared), nil
			}
			mi, err := proc.MemoryInfoWithContext(ctx)
			if err != nil {
				return 0, mapProcErr(err)
			}
			return int64(mi.RSS), nil
		}),
		rate(domain.CounterIOReadSec, func(ctx context.Context) (uint64, error) {
			io, err := proc.IOCountersWithContext(ctx)
			if err != nil {
				return 0, mapProcErr(err)
			}
			return io.ReadCount, nil
		}),
		rate(domain.CounterIOWriteSec, func(ctx context.Context) (uint64, error) {
			io, err := proc.IOCountersWithContext(ctx)
			if err != nil {
				return 0, mapProcErr(err)
			}
			return io.WriteCount, nil
		}),
		rate(domain.CounterPageFaultsSec, func(ctx context.Context) (uint64, error) {
			pf, err := proc.PageFaultsWithContext(ctx)
			if err != nil {
				return 0, mapProcErr(err)
			}
			return pf.MinorFaults + pf.MajorFaults, nil
		}),
	}
}
