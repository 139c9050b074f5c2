package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics keeps in-process request and error counters, keyed by
// path|method|status and path|method|code respectively. A nil receiver is a
// no-op so call sites never need to guard.
type Metrics struct {
	mu       sync.Mutex
	requests map[string]int64
	errors   map[string]int64
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests: make(map[string]int64),
		errors:   make(map[string]int64),
	}
}

// RecordRequest counts one handled request.
func (m *Metrics) RecordRequest(path, method string, status int, _ time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.requests[path+"|"+method+"|"+strconv.Itoa(status)]++
	m.mu.Unlock()
}

// RecordError counts one request that ended in a domain error.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.errors[path+"|"+method+"|"+code]++
	m.mu.Unlock()
}
