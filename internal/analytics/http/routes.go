package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/webcanteen/webcanteen-analytics/internal/platform/httpx"
)

// MountRoutes registers order analytics endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "")
		}),
	)

	r.Route("/analytics", func(ar chi.Router) {
		ar.Get("/", h.handleDashboardPage)
		ar.Get("/periods", h.handlePeriods)
		ar.Get("/report", h.handleReport)
		ar.Get("/dashboard", h.handleDashboard)
		ar.Get("/charts/{chart}.svg", h.handleChart)
		ar.Get("/snapshots/{id}", h.handleSnapshot)
		ar.Group(func(gr chi.Router) {
			gr.Use(limiter)
			gr.Get("/pdf", h.handlePDF)
			gr.Get("/export.csv", h.handleCSV)
			gr.Post("/compute", h.handleCompute)
			gr.Post("/cache/invalidate", h.handleInvalidate)
		})
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
