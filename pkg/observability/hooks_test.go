package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Search hooks
	s := NoopSearchHooks{}
	s.OnSearchStart(ctx, "spr", 8, 20)
	s.OnImprovement(ctx, "spr", 31)
	s.OnReplicateComplete(ctx, "spr", 0, 30, 1200)
	s.OnSearchComplete(ctx, "spr", 30, 4, "converged", time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "score")
	c.OnCacheMiss(ctx, "search")
	c.OnCacheSet(ctx, "search", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/search")
	h.OnResponse(ctx, "POST", "/v1/search", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Search().(NoopSearchHooks); !ok {
		t.Error("Search() should return NoopSearchHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customSearch := &testSearchHooks{}
	SetSearchHooks(customSearch)
	if Search() != customSearch {
		t.Error("SetSearchHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Search().(NoopSearchHooks); !ok {
		t.Error("Reset() should restore NoopSearchHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testSearchHooks{}
	SetSearchHooks(custom)

	// Setting nil should be ignored
	SetSearchHooks(nil)

	if Search() != custom {
		t.Error("SetSearchHooks(nil) should be ignored")
	}

	Reset()
}

func TestPrometheusRecordsSearches(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry())
	ctx := context.Background()

	p.OnImprovement(ctx, "spr", 12)
	p.OnImprovement(ctx, "spr", 11)
	p.OnReplicateComplete(ctx, "spr", 0, 11, 40)
	p.OnReplicateComplete(ctx, "spr", 1, 11, 35)
	p.OnSearchComplete(ctx, "spr", 11, 2, "converged", time.Second, nil)
	p.OnSearchComplete(ctx, "nni", 0, 0, "converged", time.Second, errors.New("boom"))

	if got := testutil.ToFloat64(p.ImprovementsTotal.WithLabelValues("spr")); got != 2 {
		t.Errorf("improvements = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.RearrangementsTotal.WithLabelValues("spr")); got != 75 {
		t.Errorf("rearrangements = %v, want 75", got)
	}
	if got := testutil.ToFloat64(p.BestLength); got != 11 {
		t.Errorf("best length = %v, want 11", got)
	}
	if got := testutil.ToFloat64(p.SearchesTotal.WithLabelValues("nni", "error")); got != 1 {
		t.Errorf("failed searches = %v, want 1", got)
	}
}

func TestPrometheusRecordsCacheAndHTTP(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry())
	ctx := context.Background()

	p.OnCacheHit(ctx, "score")
	p.OnCacheMiss(ctx, "score")
	p.OnCacheSet(ctx, "score", 10)
	for _, result := range []string{"hit", "miss", "set"} {
		if got := testutil.ToFloat64(p.CacheRequestsTotal.WithLabelValues("score", result)); got != 1 {
			t.Errorf("cache %s = %v, want 1", result, got)
		}
	}

	p.OnRequest(ctx, "GET", "/healthz")
	if got := testutil.ToFloat64(p.HTTPInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	p.OnResponse(ctx, "GET", "/healthz", 200, time.Millisecond)
	if got := testutil.ToFloat64(p.HTTPInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(p.HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
}

// Test implementations
type testSearchHooks struct{ NoopSearchHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
