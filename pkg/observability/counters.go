package observability

import (
	"context"
	"sync"
	"time"
)

// Counters implements every hook interface by keeping totals. It is safe
// for concurrent use.
type Counters struct {
	mu    sync.Mutex
	start time.Time
	s     Stats
}

// Stats is a point-in-time copy of the totals.
type Stats struct {
	Uptime          time.Duration  `json:"-"`
	UptimeSeconds   float64        `json:"uptimeSeconds"`
	CacheHits       int            `json:"cacheHits"`
	CacheMisses     int            `json:"cacheMisses"`
	Fetches         map[string]int `json:"fetches"`
	FetchErrors     int            `json:"fetchErrors"`
	FetchedBytes    int64          `json:"fetchedBytes"`
	Decodes         map[string]int `json:"decodes"`
	DecodeErrors    int            `json:"decodeErrors"`
	Exports         map[string]int `json:"exports"`
	ExportErrors    int            `json:"exportErrors"`
	ExportedBytes   int64          `json:"exportedBytes"`
	LastExportTook  time.Duration  `json:"-"`
	LastExportMilli int64          `json:"lastExportMs"`
}

// NewCounters creates zeroed counters.
func NewCounters() *Counters {
	return &Counters{
		start: time.Now(),
		s: Stats{
			Fetches: make(map[string]int),
			Decodes: make(map[string]int),
			Exports: make(map[string]int),
		},
	}
}

func (c *Counters) OnCacheHit(context.Context, string) {
	c.mu.Lock()
	c.s.CacheHits++
	c.mu.Unlock()
}

func (c *Counters) OnCacheMiss(context.Context, string) {
	c.mu.Lock()
	c.s.CacheMisses++
	c.mu.Unlock()
}

func (c *Counters) OnFetch(_ context.Context, kind string, size int, _ time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.s.FetchErrors++
		return
	}
	c.s.Fetches[kind]++
	c.s.FetchedBytes += int64(size)
}

func (c *Counters) OnDecode(_ context.Context, format string, _ time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.s.DecodeErrors++
		return
	}
	c.s.Decodes[format]++
}

func (c *Counters) OnExportStart(context.Context, string, int) {}

func (c *Counters) OnExportComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.s.ExportErrors++
		return
	}
	c.s.Exports[format]++
	c.s.ExportedBytes += int64(size)
	c.s.LastExportTook = d
	c.s.LastExportMilli = d.Milliseconds()
}

// Stats returns a copy of the totals.
func (c *Counters) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.s
	out.Fetches = copyMap(c.s.Fetches)
	out.Decodes = copyMap(c.s.Decodes)
	out.Exports = copyMap(c.s.Exports)
	out.Uptime = time.Since(c.start)
	out.UptimeSeconds = out.Uptime.Seconds()
	return out
}

func copyMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var (
	_ ImageHooks  = (*Counters)(nil)
	_ ExportHooks = (*Counters)(nil)
)
