package observability

import (
	"maps"
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	requestMillis   map[string]int64
	errorCount      map[string]int64
	transitionCount map[string]int64
	rejectionCount  map[string]int64
	auditFailures   int64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Requests      map[string]int64 `json:"requests"`
	RequestMillis map[string]int64 `json:"request_millis"`
	Errors        map[string]int64 `json:"errors"`
	Transitions   map[string]int64 `json:"transitions"`
	Rejections    map[string]int64 `json:"rejections"`
	AuditFailures int64            `json:"audit_failures"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		requestMillis:   make(map[string]int64),
		errorCount:      make(map[string]int64),
		transitionCount: make(map[string]int64),
		rejectionCount:  make(map[string]int64),
	}
}

// RecordRequest counts a request and adds its latency to the route total.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestMillis[key] += duration.Milliseconds()
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordTransition counts a committed lifecycle change.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionCount[from+"->"+to]++
}

// RecordRejection counts a transition refused by the gate, keyed by error code.
func (m *Metrics) RecordRejection(code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejectionCount[code]++
}

// RecordAuditFailure counts audit writes that were dropped.
func (m *Metrics) RecordAuditFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditFailures++
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Requests:      maps.Clone(m.requestCount),
		RequestMillis: maps.Clone(m.requestMillis),
		Errors:        maps.Clone(m.errorCount),
		Transitions:   maps.Clone(m.transitionCount),
		Rejections:    maps.Clone(m.rejectionCount),
		AuditFailures: m.auditFailures,
	}
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
