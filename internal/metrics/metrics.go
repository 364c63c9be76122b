package metrics

import "sync/atomic"

// MetricID indexes a single counter.
type MetricID int

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginRateLimited
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricTokenRejected
	MetricResetRequested
	MetricResetRedeemed
	MetricResetRejected
	MetricRegisterSuccess
	MetricRegisterDuplicate
	MetricCacheHit
	MetricCacheMiss
	MetricCacheInvalidation
	MetricStoreFailure

	MetricIDCount
)

// Config controls whether counting is active at all.
type Config struct {
	Enabled bool
}

// Metrics is a fixed array of atomic counters. A nil or disabled instance
// turns every operation into a no-op, so call sites never branch.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]atomic.Uint64
}

func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id < 0 || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Counters [MetricIDCount]uint64
}

func (m *Metrics) Snapshot() Snapshot {
	var s Snapshot
	if m == nil || !m.enabled {
		return s
	}
	for i := range m.counters {
		s.Counters[i] = m.counters[i].Load()
	}
	return s
}

// Get returns one counter from the snapshot, zero for out-of-range ids.
func (s Snapshot) Get(id MetricID) uint64 {
	if id < 0 || id >= MetricIDCount {
		return 0
	}
	return s.Counters[id]
}
