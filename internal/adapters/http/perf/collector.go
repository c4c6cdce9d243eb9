package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 4096

// Kind distinguishes HTTP requests from SQL statements.
type Kind uint8

const (
	KindRequest Kind = iota
	KindQuery
)

// Sample is a single timing record.
type Sample struct {
	Kind     Kind
	Name     string // "GET /events" or the store operation
	Status   int    // HTTP status, 0 for queries
	Duration time.Duration
	At       time.Time
}

// Collector keeps the most recent samples in a fixed-size ring.
// When full, the oldest sample is overwritten.
type Collector struct {
	mu      sync.Mutex
	samples []Sample
	next    int
	total   atomic.Int64
}

// NewCollector creates a collector holding up to size samples.
// PRE: size > 0, otherwise DefaultRingSize is used
// POST: Returns a ready-to-use collector
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{samples: make([]Sample, size)}
}

// Record stores a sample. A nil collector ignores it.
// POST: sample stored; oldest sample overwritten if ring is full
func (c *Collector) Record(s Sample) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.samples[c.next] = s
	c.next = (c.next + 1) % len(c.samples)
	c.mu.Unlock()
	c.total.Add(1)
}

// Total returns the number of samples ever recorded.
func (c *Collector) Total() int64 {
	if c == nil {
		return 0
	}
	return c.total.Load()
}

// Stat aggregates the samples sharing a name.
type Stat struct {
	Name  string
	Count int
	Avg   time.Duration
	Max   time.Duration
	Errs  int // responses with status >= 500
	total time.Duration
}

// Summary is the aggregated view rendered on the staff performance page.
type Summary struct {
	Requests int
	P50      time.Duration
	P95      time.Duration
	P99      time.Duration
	Routes   []Stat
	Queries  []Stat
}

// Summarize aggregates the samples recorded at or after since.
// The topN slowest routes and queries by average duration are returned.
func (c *Collector) Summarize(since time.Time, topN int) Summary {
	c.mu.Lock()
	buf := make([]Sample, len(c.samples))
	copy(buf, c.samples)
	c.mu.Unlock()

	var durations []time.Duration
	routes := map[string]*Stat{}
	queries := map[string]*Stat{}

	for _, s := range buf {
		if s.At.IsZero() || s.At.Before(since) {
			continue
		}
		group := queries
		if s.Kind == KindRequest {
			group = routes
			durations = append(durations, s.Duration)
		}
		st, ok := group[s.Name]
		if !ok {
			st = &Stat{Name: s.Name}
			group[s.Name] = st
		}
		st.Count++
		st.total += s.Duration
		if s.Duration > st.Max {
			st.Max = s.Duration
		}
		if s.Status >= 500 {
			st.Errs++
		}
	}

	sum := Summary{
		Requests: len(durations),
		Routes:   slowest(routes, topN),
		Queries:  slowest(queries, topN),
	}
	if len(durations) > 0 {
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
		sum.P50 = percentile(durations, 50)
		sum.P95 = percentile(durations, 95)
		sum.P99 = percentile(durations, 99)
	}
	return sum
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	idx := (p / 100) * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return time.Duration(float64(sorted[lo])*(1-frac) + float64(sorted[hi])*frac)
}

func slowest(stats map[string]*Stat, n int) []Stat {
	list := make([]Stat, 0, len(stats))
	for _, s := range stats {
		s.Avg = s.total / time.Duration(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Avg == list[j].Avg {
			return list[i].Name < list[j].Name
		}
		return list[i].Avg > list[j].Avg
	})
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	return list
}
