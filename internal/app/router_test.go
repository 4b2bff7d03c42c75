package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/format"
	analytichttp "github.com/webcanteen/webcanteen-analytics/internal/analytics/http"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/ui"
	"github.com/webcanteen/webcanteen-analytics/internal/ingest"
	"github.com/webcanteen/webcanteen-analytics/internal/observability"
	"github.com/webcanteen/webcanteen-analytics/internal/view"
	"github.com/webcanteen/webcanteen-analytics/jobs"
)

const routerDataset = `{"orders":[
 {"id":"A1","status":"delivered","value":1000,"payment_mode":"prepaid"},
 {"id":"A2","status":"cancelled","value":500,"payment_mode":"cod"}],
 "costs":[{"category":"manufacturing","amount":300}]}`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "2024-12.json"), []byte(routerDataset), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &Config{AppEnv: "test"}
	service := analytics.NewService(ingest.NewFileSource(dir), nil)
	handler := analytichttp.NewHandler(logger, service, format.MustNew("USD", "en"), ui.SVGRenderers(), nil)
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	handler.WithPages(templates)
	return NewRouter(RouterParams{
		Logger:           logger,
		Config:           cfg,
		AnalyticsHandler: handler,
		JobHandler:       jobs.NewHandler(nil, logger),
		Metrics:          observability.NewMetrics(),
	})
}

func TestRouterServesHealthAndReport(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected healthz response %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatalf("expected security headers, got %v", rec.Header())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analytics/report?period=2024-12", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected report status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "$700") {
		t.Fatalf("expected formatted net profit in body: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analytics/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Order Status Distribution") {
		t.Fatalf("unexpected dashboard page %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected jobs health status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "webcanteen_http_requests_total") {
		t.Fatalf("expected metrics exposition, got %d", rec.Code)
	}
}

func TestRouterRootRedirectsToDashboard(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/analytics/" {
		t.Fatalf("unexpected root response %d %s", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRouterServesStaticAssets(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/css/dashboard.css", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected static status %d", rec.Code)
	}
	if got := rec.Header().Get("Cache-Control"); got != "public, max-age=3600" {
		t.Fatalf("unexpected cache header %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/css") {
		t.Fatalf("unexpected content type %q", ct)
	}
}
