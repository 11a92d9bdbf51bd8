package utils

import (
	"sync"
	"time"
)

// Tracks request counts and per-operation latencies across the client.
type MetricsCollector struct {
	mu           sync.RWMutex
	requestCount uint64
	errorCount   uint64

	// Maps operation name to list of latencies in nanoseconds
	operationTimes map[string][]int64

	startTime time.Time
}

// MetricsSnapshot is a point-in-time copy of the collected counters.
type MetricsSnapshot struct {
	Requests         uint64
	Errors           uint64
	Uptime           time.Duration
	AverageLatencies map[string]time.Duration
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		operationTimes: make(map[string][]int64),
		startTime:      time.Now(),
	}
}

func (mc *MetricsCollector) IncrementRequests() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.requestCount++
}

func (mc *MetricsCollector) IncrementErrors() {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.errorCount++
}

func (mc *MetricsCollector) AddOperationLatency(operationName string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.operationTimes[operationName] = append(
		mc.operationTimes[operationName],
		duration.Nanoseconds(),
	)
}

// Snapshot returns a copy of the current counters, with latencies averaged
// per operation.
func (mc *MetricsCollector) Snapshot() MetricsSnapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	averages := make(map[string]time.Duration, len(mc.operationTimes))
	for op, times := range mc.operationTimes {
		if len(times) == 0 {
			continue
		}
		var total int64
		for _, t := range times {
			total += t
		}
		averages[op] = time.Duration(total / int64(len(times)))
	}

	return MetricsSnapshot{
		Requests:         mc.requestCount,
		Errors:           mc.errorCount,
		Uptime:           time.Since(mc.startTime),
		AverageLatencies: averages,
	}
}
