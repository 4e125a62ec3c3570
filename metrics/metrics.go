// Copyright 2025 The Orbit Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics holds the dispatcher's lock-free runtime counters and
// latency accumulators, and exposes them to Prometheus via the
// prometheus.Collector interface. Tracing/OTel export is intentionally
// not wired here: this package only ever reports the atomic counters
// and EWMA accumulators the dispatch core itself maintains.
package metrics

import (
	"math"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// ewmaAlpha is the smoothing factor for every latency accumulator in
// this package: new_avg = alpha*sample + (1-alpha)*old_avg.
const ewmaAlpha = 0.1

// ewma is a lock-free exponentially weighted moving average, updated
// via a compare-and-swap loop over the float64 bit pattern held in an
// atomic.Uint64 - the same "CAS over an atomically-held value" idiom
// used for every other counter in this package, just applied to a float
// instead of an integer.
type ewma struct {
	bits atomic.Uint64 // math.Float64bits of the current average
	set  atomic.Bool   // false until the first Observe
}

func (e *ewma) Observe(sample float64) {
	if e.set.CompareAndSwap(false, true) {
		e.bits.Store(math.Float64bits(sample))
		return
	}
	for {
		old := e.bits.Load()
		next := ewmaAlpha*sample + (1-ewmaAlpha)*math.Float64frombits(old)
		if e.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return
		}
	}
}

func (e *ewma) Value() float64 {
	if !e.set.Load() {
		return 0
	}
	return math.Float64frombits(e.bits.Load())
}

// Metrics holds every counter and latency accumulator the dispatch core
// records. All fields are safe for concurrent use without an external
// lock; every method is either a single atomic op or a CAS loop.
type Metrics struct {
	totalLookups   atomic.Uint64
	cacheHits      atomic.Uint64
	staticHits     atomic.Uint64
	dynamicHits    atomic.Uint64
	notFound       atomic.Uint64
	totalRequests  atomic.Uint64
	successful     atomic.Uint64
	failed         atomic.Uint64

	staticLookupLatency  ewma
	dynamicLookupLatency ewma
	dispatchLatency      ewma
}

// New creates a zeroed Metrics. The zero value of Metrics itself is
// also ready to use; New exists for symmetry with the rest of the
// module's constructors.
func New() *Metrics {
	return &Metrics{}
}

// RecordCacheHit tallies a lookup served entirely from the LookupCache,
// without consulting either trie.
func (m *Metrics) RecordCacheHit() {
	m.totalLookups.Add(1)
	m.cacheHits.Add(1)
}

// RecordTrieLookup tallies a lookup that fell through to the static
// trie or the Patricia matcher (static reports which one), recording
// whether it found a route.
func (m *Metrics) RecordTrieLookup(static, found bool) {
	m.totalLookups.Add(1)
	switch {
	case !found:
		m.notFound.Add(1)
	case static:
		m.staticHits.Add(1)
	default:
		m.dynamicHits.Add(1)
	}
}

// RecordStaticLookupLatency feeds one static-trie lookup duration (in
// seconds) into the static lookup EWMA.
func (m *Metrics) RecordStaticLookupLatency(seconds float64) {
	m.staticLookupLatency.Observe(seconds)
}

// RecordDynamicLookupLatency feeds one Patricia-matcher lookup duration
// (in seconds) into the dynamic lookup EWMA.
func (m *Metrics) RecordDynamicLookupLatency(seconds float64) {
	m.dynamicLookupLatency.Observe(seconds)
}

// RecordDispatch tallies one end-to-end request outcome and feeds its
// duration (in seconds) into the dispatch EWMA.
func (m *Metrics) RecordDispatch(seconds float64, success bool) {
	m.totalRequests.Add(1)
	if success {
		m.successful.Add(1)
	} else {
		m.failed.Add(1)
	}
	m.dispatchLatency.Observe(seconds)
}

// Snapshot is a point-in-time copy of every counter and latency value,
// safe to read without further synchronization.
type Snapshot struct {
	TotalLookups  uint64
	CacheHits     uint64
	StaticHits    uint64
	DynamicHits   uint64
	NotFound      uint64
	TotalRequests uint64
	Successful    uint64
	Failed        uint64

	StaticLookupLatencySeconds  float64
	DynamicLookupLatencySeconds float64
	DispatchLatencySeconds      float64
}

// Snapshot reads every field atomically. The result is not a single
// consistent transaction across fields (there is no global lock), but
// each individual field is exact at the moment it was read - adequate
// for a metrics endpoint scraped on an interval.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		TotalLookups:                m.totalLookups.Load(),
		CacheHits:                   m.cacheHits.Load(),
		StaticHits:                  m.staticHits.Load(),
		DynamicHits:                 m.dynamicHits.Load(),
		NotFound:                    m.notFound.Load(),
		TotalRequests:               m.totalRequests.Load(),
		Successful:                  m.successful.Load(),
		Failed:                      m.failed.Load(),
		StaticLookupLatencySeconds:  m.staticLookupLatency.Value(),
		DynamicLookupLatencySeconds: m.dynamicLookupLatency.Value(),
		DispatchLatencySeconds:      m.dispatchLatency.Value(),
	}
}

var (
	descTotalLookups  = prometheus.NewDesc("orbit_router_lookups_total", "Total routing lookups performed.", nil, nil)
	descCacheHits     = prometheus.NewDesc("orbit_router_cache_hits_total", "Lookups served from the bounded LRU lookup cache.", nil, nil)
	descStaticHits    = prometheus.NewDesc("orbit_router_static_hits_total", "Lookups resolved by the static trie.", nil, nil)
	descDynamicHits   = prometheus.NewDesc("orbit_router_dynamic_hits_total", "Lookups resolved by the Patricia matcher.", nil, nil)
	descNotFound      = prometheus.NewDesc("orbit_router_not_found_total", "Lookups that matched no route.", nil, nil)
	descTotalRequests = prometheus.NewDesc("orbit_dispatch_requests_total", "Total requests dispatched.", nil, nil)
	descSuccessful    = prometheus.NewDesc("orbit_dispatch_requests_successful_total", "Requests dispatched with a successful outcome.", nil, nil)
	descFailed        = prometheus.NewDesc("orbit_dispatch_requests_failed_total", "Requests dispatched with a failed outcome.", nil, nil)

	descStaticLatency  = prometheus.NewDesc("orbit_router_static_lookup_latency_seconds_ewma", "EWMA (alpha=0.1) of static trie lookup latency.", nil, nil)
	descDynamicLatency = prometheus.NewDesc("orbit_router_dynamic_lookup_latency_seconds_ewma", "EWMA (alpha=0.1) of Patricia matcher lookup latency.", nil, nil)
	descDispatchLatency = prometheus.NewDesc("orbit_dispatch_latency_seconds_ewma", "EWMA (alpha=0.1) of end-to-end dispatch latency.", nil, nil)
)

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- descTotalLookups
	ch <- descCacheHits
	ch <- descStaticHits
	ch <- descDynamicHits
	ch <- descNotFound
	ch <- descTotalRequests
	ch <- descSuccessful
	ch <- descFailed
	ch <- descStaticLatency
	ch <- descDynamicLatency
	ch <- descDispatchLatency
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	snap := m.Snapshot()

	ch <- prometheus.MustNewConstMetric(descTotalLookups, prometheus.CounterValue, float64(snap.TotalLookups))
	ch <- prometheus.MustNewConstMetric(descCacheHits, prometheus.CounterValue, float64(snap.CacheHits))
	ch <- prometheus.MustNewConstMetric(descStaticHits, prometheus.CounterValue, float64(snap.StaticHits))
	ch <- prometheus.MustNewConstMetric(descDynamicHits, prometheus.CounterValue, float64(snap.DynamicHits))
	ch <- prometheus.MustNewConstMetric(descNotFound, prometheus.CounterValue, float64(snap.NotFound))
	ch <- prometheus.MustNewConstMetric(descTotalRequests, prometheus.CounterValue, float64(snap.TotalRequests))
	ch <- prometheus.MustNewConstMetric(descSuccessful, prometheus.CounterValue, float64(snap.Successful))
	ch <- prometheus.MustNewConstMetric(descFailed, prometheus.CounterValue, float64(snap.Failed))

	ch <- prometheus.MustNewConstMetric(descStaticLatency, prometheus.GaugeValue, snap.StaticLookupLatencySeconds)
	ch <- prometheus.MustNewConstMetric(descDynamicLatency, prometheus.GaugeValue, snap.DynamicLookupLatencySeconds)
	ch <- prometheus.MustNewConstMetric(descDispatchLatency, prometheus.GaugeValue, snap.DispatchLatencySeconds)
}

var _ prometheus.Collector = (*Metrics)(nil)
