package host

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/mkurnosov/webpulse/internal/ports"
)

// Lister classifies processes as web server workers by name prefix.
type Lister struct {
	patterns []string
}

var _ ports.ProcessLister = (*Lister)(nil)

// NewLister builds a lister matching the given process name patterns
// (case-insensitive prefixes, e.g. "nginx" matches "nginx: worker process").
func NewLister(patterns []string) *Lister {
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			lowered = append(lowered, p)
		}
	}
	return &Lister{patterns: lowered}
}

// AllPIDs returns every process id on the host.
func (l *Lister) AllPIDs(ctx context.Context) ([]int32, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pids: %w", err)
	}
	return pids, nil
}

// WorkerPIDs returns the process ids whose name matches a worker pattern.
// Processes that exit mid-walk are skipped.
func (l *Lister) WorkerPIDs(ctx context.Context) ([]int32, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	var out []int32
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if l.matches(name) {
			out = append(out, p.Pid)
		}
	}
	return out, nil
}

func (l *Lister) matches(name string) bool {
	name = strings.ToLower(name)
	for _, p := range l.patterns {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
