package domain

// Counter categories exposed by a CounterProvider. Site, WorkerProcess and
// Process are multi-instance (one instance per site or worker process, plus
// an optional TotalInstance aggregate); Memory and Cache are singletons.
const (
	CategorySite          = "Site"
	CategoryWorkerProcess = "WorkerProcess"
	CategoryProcess       = "Process"
	CategoryMemory        = "Memory"
	CategoryCache         = "Cache"
)

// TotalInstance is the aggregate instance a multi-instance category may expose.
const TotalInstance = "_Total"

// Site counters.
const (
	CounterBytesRecvSec             = "Bytes Received/sec"
	CounterBytesSentSec             = "Bytes Sent/sec"
	CounterConnAttemptsSec          = "Connection Attempts/sec"
	CounterTotalConnAttempts        = "Total Connection Attempts"
	CounterMethodRequestsSec        = "Total Method Requests/sec"
	CounterOtherMethodRequestsSec   = "Total Other Request Methods/sec"
	CounterTotalMethodRequests      = "Total Method Requests"
	CounterTotalOtherMethodRequests = "Total Other Request Methods"
)

// WorkerProcess counters.
const (
	CounterActiveRequests = "Active Requests"
	CounterPercent500     = "% 500 HTTP Response Sent"
)

// Process counters.
const (
	CounterPercentCPU        = "% Processor Time"
	CounterHandleCount       = "Handle Count"
	CounterPrivateBytes      = "Private Bytes"
	CounterThreadCount       = "Thread Count"
	CounterPrivateWorkingSet = "Working Set - Private"
	CounterWorkingSet        = "Working Set"
	CounterIOReadSec         = "IO Read Operations/sec"
	CounterIOWriteSec        = "IO Write Operations/sec"
	CounterPageFaultsSec     = "Page Faults/sec"
)

// Memory counters.
const CounterAvailableBytes = "Available Bytes"

// Cache counters.
const (
	CounterFileCacheMemoryUsage = "Current File Cache Memory Usage"
	CounterCurrentFilesCached   = "Current Files Cached"
	CounterTotalFilesCached     = "Total Files Cached"
	CounterCurrentURIsCached    = "Current URIs Cached"
	CounterTotalURIsCached      = "Total URIs Cached"
	CounterFileCacheHits        = "File Cache Hits"
	CounterFileCacheMisses      = "File Cache Misses"
	CounterURICacheHits         = "URI Cache Hits"
	CounterURICacheMisses       = "URI Cache Misses"
	CounterOutputCacheItems     = "Output Cache Current Items"
	CounterOutputCacheMemory    = "Output Cache Current Memory Usage"
	CounterOutputCacheHits      = "Output Cache Total Hits"
	CounterOutputCacheMisses    = "Output Cache Total Misses"
)
