package perf

import (
	"sync"
	"testing"
	"time"
)

// TestCollector_Summarize verifies routes and queries are grouped separately.
func TestCollector_Summarize(t *testing.T) {
	c := NewCollector(100)
	now := time.Now()

	c.Record(Sample{Kind: KindRequest, Name: "GET /events", Status: 200, Duration: 10 * time.Millisecond, At: now})
	c.Record(Sample{Kind: KindRequest, Name: "GET /events", Status: 500, Duration: 30 * time.Millisecond, At: now})
	c.Record(Sample{Kind: KindQuery, Name: "QueryContext", Duration: 5 * time.Millisecond, At: now})

	sum := c.Summarize(now.Add(-time.Minute), 10)
	if sum.Requests != 2 {
		t.Errorf("Requests = %d, want 2", sum.Requests)
	}
	if len(sum.Routes) != 1 {
		t.Fatalf("Routes len = %d, want 1", len(sum.Routes))
	}
	route := sum.Routes[0]
	if route.Avg != 20*time.Millisecond {
		t.Errorf("Avg = %v, want 20ms", route.Avg)
	}
	if route.Max != 30*time.Millisecond {
		t.Errorf("Max = %v, want 30ms", route.Max)
	}
	if route.Errs != 1 {
		t.Errorf("Errs = %d, want 1", route.Errs)
	}
	if len(sum.Queries) != 1 {
		t.Fatalf("Queries len = %d, want 1", len(sum.Queries))
	}
}

// TestCollector_RingOverwrites verifies the oldest samples are dropped when full.
func TestCollector_RingOverwrites(t *testing.T) {
	c := NewCollector(3)
	now := time.Now()

	for i := 0; i < 5; i++ {
		c.Record(Sample{Kind: KindRequest, Name: "GET /x", Duration: time.Duration(i) * time.Millisecond, At: now})
	}

	if c.Total() != 5 {
		t.Errorf("Total = %d, want 5", c.Total())
	}
	sum := c.Summarize(now.Add(-time.Minute), 10)
	if sum.Routes[0].Count != 3 {
		t.Errorf("Count = %d, want 3", sum.Routes[0].Count)
	}
	if sum.Routes[0].Max != 4*time.Millisecond {
		t.Errorf("Max = %v, want 4ms", sum.Routes[0].Max)
	}
}

// TestCollector_Percentiles verifies P50/P95/P99.
func TestCollector_Percentiles(t *testing.T) {
	c := NewCollector(200)
	now := time.Now()
	for i := 1; i <= 100; i++ {
		c.Record(Sample{Kind: KindRequest, Name: "GET /p", Duration: time.Duration(i) * time.Millisecond, At: now})
	}

	sum := c.Summarize(now.Add(-time.Minute), 10)
	if sum.P50 < 49*time.Millisecond || sum.P50 > 51*time.Millisecond {
		t.Errorf("P50 = %v, want ~50ms", sum.P50)
	}
	if sum.P95 < 94*time.Millisecond || sum.P95 > 96*time.Millisecond {
		t.Errorf("P95 = %v, want ~95ms", sum.P95)
	}
	if sum.P99 < 98*time.Millisecond || sum.P99 > 100*time.Millisecond {
		t.Errorf("P99 = %v, want ~99ms", sum.P99)
	}
}

// TestCollector_SinceFilter verifies old samples are excluded.
func TestCollector_SinceFilter(t *testing.T) {
	c := NewCollector(10)
	now := time.Now()
	c.Record(Sample{Kind: KindRequest, Name: "GET /old", Duration: time.Millisecond, At: now.Add(-2 * time.Hour)})
	c.Record(Sample{Kind: KindRequest, Name: "GET /new", Duration: time.Millisecond, At: now})

	sum := c.Summarize(now.Add(-time.Hour), 10)
	if len(sum.Routes) != 1 || sum.Routes[0].Name != "GET /new" {
		t.Errorf("Routes = %+v, want only GET /new", sum.Routes)
	}
}

// TestCollector_TopN verifies ordering and truncation.
func TestCollector_TopN(t *testing.T) {
	c := NewCollector(10)
	now := time.Now()
	c.Record(Sample{Kind: KindQuery, Name: "fast", Duration: time.Millisecond, At: now})
	c.Record(Sample{Kind: KindQuery, Name: "slow", Duration: 9 * time.Millisecond, At: now})
	c.Record(Sample{Kind: KindQuery, Name: "mid", Duration: 5 * time.Millisecond, At: now})

	sum := c.Summarize(now.Add(-time.Minute), 2)
	if len(sum.Queries) != 2 {
		t.Fatalf("Queries len = %d, want 2", len(sum.Queries))
	}
	if sum.Queries[0].Name != "slow" || sum.Queries[1].Name != "mid" {
		t.Errorf("order = %s, %s", sum.Queries[0].Name, sum.Queries[1].Name)
	}
}

// TestCollector_NilSafe verifies a nil collector ignores samples.
func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.Record(Sample{Name: "x"})
	if c.Total() != 0 {
		t.Errorf("Total on nil = %d", c.Total())
	}
}

// TestCollector_Concurrent verifies concurrent recording is safe.
func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector(1000)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Record(Sample{Kind: KindRequest, Name: "GET /c", Duration: time.Millisecond, At: time.Now()})
			}
		}()
	}
	wg.Wait()
	if c.Total() != 1000 {
		t.Errorf("Total = %d, want 1000", c.Total())
	}
}
