// Package metrics is a minimal counter/gauge collector exposing Prometheus
// text exposition format, small enough to avoid the client_golang dependency.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Default is the process-wide collector.
var Default = NewCollector()

type Collector struct {
	mu        sync.RWMutex
	counters  map[string]*Counter
	gauges    map[string]*Gauge
	startTime time.Time
}

func NewCollector() *Collector {
	return &Collector{
		counters:  make(map[string]*Counter),
		gauges:    make(map[string]*Gauge),
		startTime: time.Now(),
	}
}

// Counter is a monotonically increasing counter.
type Counter struct {
	help  string
	value atomic.Int64
}

func (c *Counter) Inc() { c.value.Add(1) }

func (c *Counter) Add(n int64) { c.value.Add(n) }

func (c *Counter) Value() int64 { return c.value.Load() }

// Gauge is a value that can go up and down.
type Gauge struct {
	help  string
	value atomic.Int64
}

func (g *Gauge) Set(v int64) { g.value.Store(v) }

func (g *Gauge) Value() int64 { return g.value.Load() }

// Counter returns (registering if needed) the counter with the given name.
func (c *Collector) Counter(name, help string) *Counter {
	c.mu.RLock()
	ctr, ok := c.counters[name]
	c.mu.RUnlock()
	if ok {
		return ctr
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if ctr, ok = c.counters[name]; ok {
		return ctr
	}
	ctr = &Counter{help: help}
	c.counters[name] = ctr
	return ctr
}

// Gauge returns (registering if needed) the gauge with the given name.
func (c *Collector) Gauge(name, help string) *Gauge {
	c.mu.RLock()
	g, ok := c.gauges[name]
	c.mu.RUnlock()
	if ok {
		return g
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok = c.gauges[name]; ok {
		return g
	}
	g = &Gauge{help: help}
	c.gauges[name] = g
	return g
}

// Render writes all metrics in Prometheus exposition format.
func (c *Collector) Render() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out string

	names := make([]string, 0, len(c.counters))
	for name := range c.counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ctr := c.counters[name]
		out += fmt.Sprintf("# HELP %s %s\n# TYPE %s counter\n%s %d\n", name, ctr.help, name, name, ctr.Value())
	}

	names = names[:0]
	for name := range c.gauges {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		g := c.gauges[name]
		out += fmt.Sprintf("# HELP %s %s\n# TYPE %s gauge\n%s %d\n", name, g.help, name, name, g.Value())
	}

	out += fmt.Sprintf("# HELP lingochat_uptime_seconds Process uptime.\n# TYPE lingochat_uptime_seconds gauge\nlingochat_uptime_seconds %d\n",
		int64(time.Since(c.startTime).Seconds()))
	return out
}

// Handler serves the collector over HTTP.
func (c *Collector) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = rw.Write([]byte(c.Render()))
	}
}
