package perf

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/format"
	analytichttp "github.com/webcanteen/webcanteen-analytics/internal/analytics/http"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/ui"
)

func newReportRouter(tb testing.TB, service *analytics.Service) http.Handler {
	tb.Helper()
	router := chi.NewRouter()
	handler := analytichttp.NewHandler(discardLogger(), service, format.MustNew("INR", "en-IN"), ui.SVGRenderers(), nil)
	handler.MountRoutes(router)
	return router
}

func newCachedService(tb testing.TB, source analytics.DatasetSource) *analytics.Service {
	tb.Helper()
	mr := miniredis.RunT(tb)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tb.Cleanup(func() { _ = client.Close() })
	return analytics.NewService(source, analytics.NewCache(client, time.Minute))
}

func TestReportLatencyTargets(t *testing.T) {
	source := newMemorySource("2024-12")
	scenarios := []struct {
		name      string
		service   *analytics.Service
		path      string
		threshold time.Duration
	}{
		{name: "cached", service: newCachedService(t, source), path: "/analytics/report?period=2024-12", threshold: 250 * time.Millisecond},
		{name: "cold", service: analytics.NewService(source, nil), path: "/analytics/report?period=2024-12", threshold: 500 * time.Millisecond},
		{name: "dashboard", service: newCachedService(t, source), path: "/analytics/dashboard?period=2024-12", threshold: 750 * time.Millisecond},
	}

	for _, scenario := range scenarios {
		router := newReportRouter(t, scenario.service)
		samples := make([]time.Duration, 0, 20)
		for i := 0; i < 20; i++ {
			start := time.Now()
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, scenario.path, nil))
			samples = append(samples, time.Since(start))
			if rec.Code != http.StatusOK {
				t.Fatalf("%s: unexpected status %d: %s", scenario.name, rec.Code, rec.Body.String())
			}
		}
		p95 := percentile95(samples)
		if p95 > scenario.threshold {
			t.Fatalf("%s latency regression: p95=%s threshold=%s", scenario.name, p95, scenario.threshold)
		}
	}
}

func BenchmarkBuildReport(b *testing.B) {
	dataset := syntheticDataset("2024-12", 1622)
	now := time.Date(2024, 12, 16, 0, 0, 0, 0, time.UTC)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = analytics.BuildReport(dataset, now)
	}
}

func BenchmarkBuildReportLarge(b *testing.B) {
	dataset := syntheticDataset("2024-12", 100_000)
	now := time.Date(2024, 12, 16, 0, 0, 0, 0, time.UTC)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = analytics.BuildReport(dataset, now)
	}
}

func BenchmarkReportHandlerCached(b *testing.B) {
	router := newReportRouter(b, newCachedService(b, newMemorySource("2024-12")))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analytics/report?period=2024-12", nil))
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func BenchmarkStatusChart(b *testing.B) {
	router := newReportRouter(b, analytics.NewService(newMemorySource("2024-12"), nil))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analytics/charts/status.svg?period=2024-12", nil))
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
