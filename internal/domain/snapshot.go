// Package domain holds the entities shared by the snapshot engine and its adapters.
package domain

import "time"

// Snapshot is the aggregated point-in-time health picture of the web server
// host. One live instance exists per aggregator; every field is overwritten
// wholesale on each successful refresh cycle, so the struct always reflects a
// single aggregation pass.
type Snapshot struct {
	// Site traffic.
	BytesSentSec            int64 `json:"bytes_sent_sec"`
	BytesRecvSec            int64 `json:"bytes_recv_sec"`
	ConnectionAttemptsSec   int64 `json:"connection_attempts_sec"`
	TotalConnectionAttempts int64 `json:"total_connection_attempts"`
	RequestsSec             int64 `json:"requests_sec"`
	TotalRequests           int64 `json:"total_requests"`

	// Worker process request handling.
	ActiveRequests int64 `json:"active_requests"`
	Percent500     int64 `json:"percent_500"`

	// Per-process resources, summed over worker processes.
	CPUPercent        int64 `json:"cpu_percent"`
	HandleCount       int64 `json:"handle_count"`
	PrivateBytes      int64 `json:"private_bytes"`
	ThreadCount       int64 `json:"thread_count"`
	PrivateWorkingSet int64 `json:"private_working_set"`
	WorkingSet        int64 `json:"working_set"`
	IOReadSec         int64 `json:"io_read_sec"`
	IOWriteSec        int64 `json:"io_write_sec"`
	PageFaultsSec     int64 `json:"page_faults_sec"`
	ProcessCount      int64 `json:"process_count"`

	// System memory.
	AvailableBytes int64 `json:"available_bytes"`

	// Content caches.
	FileCacheMemoryUsage    int64 `json:"file_cache_memory_usage"`
	CurrentFilesCached      int64 `json:"current_files_cached"`
	TotalFilesCached        int64 `json:"total_files_cached"`
	CurrentURIsCached       int64 `json:"current_uris_cached"`
	TotalURIsCached         int64 `json:"total_uris_cached"`
	FileCacheHits           int64 `json:"file_cache_hits"`
	FileCacheMisses         int64 `json:"file_cache_misses"`
	URICacheHits            int64 `json:"uri_cache_hits"`
	URICacheMisses          int64 `json:"uri_cache_misses"`
	OutputCacheCurrentItems int64 `json:"output_cache_current_items"`
	OutputCacheMemoryUsage  int64 `json:"output_cache_memory_usage"`
	OutputCacheTotalHits    int64 `json:"output_cache_total_hits"`
	OutputCacheTotalMisses  int64 `json:"output_cache_total_misses"`
}

// HistoryEntry is one persisted snapshot row.
type HistoryEntry struct {
	TakenAt  time.Time `json:"taken_at"`
	Snapshot Snapshot  `json:"snapshot"`
}
