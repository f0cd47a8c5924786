package perf

import "github.com/mkurnosov/webpulse/internal/domain"

// counterKey identifies an aggregate target by (category, counter name).
// The instance dimension is deliberately absent: every instance of a mapped
// pair is summed into the same field.
type counterKey struct {
	category string
	name     string
}

// fieldMap routes a refreshed counter value into its snapshot field. Pairs
// not present here are ignored. Two Site pairs fan into RequestsSec and two
// into TotalRequests ("method" plus "other method" counters).
var fieldMap = map[counterKey]func(*domain.Snapshot, int64){
	{domain.CategorySite, domain.CounterBytesRecvSec}:             func(s *domain.Snapshot, v int64) { s.BytesRecvSec += v },
	{domain.CategorySite, domain.CounterBytesSentSec}:             func(s *domain.Snapshot, v int64) { s.BytesSentSec += v },
	{domain.CategorySite, domain.CounterConnAttemptsSec}:          func(s *domain.Snapshot, v int64) { s.ConnectionAttemptsSec += v },
	{domain.CategorySite, domain.CounterTotalConnAttempts}:        func(s *domain.Snapshot, v int64) { s.TotalConnectionAttempts += v },
	{domain.CategorySite, domain.CounterMethodRequestsSec}:        func(s *domain.Snapshot, v int64) { s.RequestsSec += v },
	{domain.CategorySite, domain.CounterOtherMethodRequestsSec}:   func(s *domain.Snapshot, v int64) { s.RequestsSec += v },
	{domain.CategorySite, domain.CounterTotalMethodRequests}:      func(s *domain.Snapshot, v int64) { s.TotalRequests += v },
	{domain.CategorySite, domain.CounterTotalOtherMethodRequests}: func(s *domain.Snapshot, v int64) { s.TotalRequests += v },

	{domain.CategoryWorkerProcess, domain.CounterActiveRequests}: func(s *domain.Snapshot, v int64) { s.ActiveRequests += v },
	{domain.CategoryWorkerProcess, domain.CounterPercent500}:     func(s *domain.Snapshot, v int64) { s.Percent500 += v },

	{domain.CategoryProcess, domain.CounterPercentCPU}:        func(s *domain.Snapshot, v int64) { s.CPUPercent += v },
	{domain.CategoryProcess, domain.CounterHandleCount}:       func(s *domain.Snapshot, v int64) { s.HandleCount += v },
	{domain.CategoryProcess, domain.CounterPrivateBytes}:      func(s *domain.Snapshot, v int64) { s.PrivateBytes += v },
	{domain.CategoryProcess, domain.CounterThreadCount}:       func(s *domain.Snapshot, v int64) { s.ThreadCount += v },
	{domain.CategoryProcess, domain.CounterPrivateWorkingSet}: func(s *domain.Snapshot, v int64) { s.PrivateWorkingSet += v },
	{domain.CategoryProcess, domain.CounterWorkingSet}:        func(s *domain.Snapshot, v int64) { s.WorkingSet += v },
	{domain.CategoryProcess, domain.CounterIOReadSec}:         func(s *domain.Snapshot, v int64) { s.IOReadSec += v },
	{domain.CategoryProcess, domain.CounterIOWriteSec}:        func(s *domain.Snapshot, v int64) { s.IOWriteSec += v },
	{domain.CategoryProcess, domain.CounterPageFaultsSec}:     func(s *domain.Snapshot, v int64) { s.PageFaultsSec += v },

	{domain.CategoryMemory, domain.CounterAvailableBytes}: func(s *domain.Snapshot, v int64) { s.AvailableBytes += v },

	{domain.CategoryCache, domain.CounterFileCacheMemoryUsage}: func(s *domain.Snapshot, v int64) { s.FileCacheMemoryUsage += v },
	{domain.CategoryCache, domain.CounterCurrentFilesCached}:   func(s *domain.Snapshot, v int64) { s.CurrentFilesCached += v },
	{domain.CategoryCache, domain.CounterTotalFilesCached}:     func(s *domain.Snapshot, v int64) { s.TotalFilesCached += v },
	{domain.CategoryCache, domain.CounterCurrentURIsCached}:    func(s *domain.Snapshot, v int64) { s.CurrentURIsCached += v },
	{domain.CategoryCache, domain.CounterTotalURIsCached}:      func(s *domain.Snapshot, v int64) { s.TotalURIsCached += v },
	{domain.CategoryCache, domain.CounterFileCacheHits}:        func(s *domain.Snapshot, v int64) { s.FileCacheHits += v },
	{domain.CategoryCache, domain.CounterFileCacheMisses}:      func(s *domain.Snapshot, v int64) { s.FileCacheMisses += v },
	{domain.CategoryCache, domain.CounterURICacheHits}:         func(s *domain.Snapshot, v int64) { s.URICacheHits += v },
	{domain.CategoryCache, domain.CounterURICacheMisses}:       func(s *domain.Snapshot, v int64) { s.URICacheMisses += v },
	{domain.CategoryCache, domain.CounterOutputCacheItems}:     func(s *domain.Snapshot, v int64) { s.OutputCacheCurrentItems += v },
	{domain.CategoryCache, domain.CounterOutputCacheMemory}:    func(s *domain.Snapshot, v int64) { s.OutputCacheMemoryUsage += v },
	{domain.CategoryCache, domain.CounterOutputCacheHits}:      func(s *domain.Snapshot, v int64) { s.OutputCacheTotalHits += v },
	{domain.CategoryCache, domain.CounterOutputCacheMisses}:    func(s *domain.Snapshot, v int64) { s.OutputCacheTotalMisses += v },
}

// fold walks one refreshed counter set and rebuilds the aggregate from
// scratch, so a snapshot never mixes values from two set generations.
func fold(set *CounterSet, workerCount int) domain.Snapshot {
	var snap domain.Snapshot
	for i := 0; i < set.Len(); i++ {
		c, v := set.At(i)
		if apply, ok := fieldMap[counterKey{c.Category(), c.Name()}]; ok {
			apply(&snap, v)
		}
	}
	snap.ProcessCount = int64(workerCount)
	return snap
}
