package analytichttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/export"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/format"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/ui"
	"github.com/webcanteen/webcanteen-analytics/internal/ingest"
	"github.com/webcanteen/webcanteen-analytics/internal/platform/httpx"
	"github.com/webcanteen/webcanteen-analytics/internal/view"
)

const (
	requestTimeout = 5 * time.Second
	pdfTimeout     = 30 * time.Second
	maxBodyBytes   = 8 << 20
	adhocPeriod    = "adhoc"

	// statusClientClosedRequest follows the nginx convention for abandoned requests.
	statusClientClosedRequest = 499
)

// ReportService defines the report contract used by the handler.
type ReportService interface {
	Periods(ctx context.Context) ([]string, error)
	Report(ctx context.Context, period string) (analytics.Report, error)
	Compute(dataset analytics.Dataset) analytics.Report
	SaveSnapshot(ctx context.Context, report analytics.Report) (string, error)
	LoadSnapshot(ctx context.Context, id string) (analytics.Report, error)
	Invalidate(ctx context.Context) error
}

// PDFService renders report content to PDF bytes.
type PDFService interface {
	RenderReport(ctx context.Context, payload export.ReportPayload) ([]byte, error)
}

// PageRenderer renders server-side HTML pages.
type PageRenderer interface {
	Render(w http.ResponseWriter, name string, data view.TemplateData) error
}

// Warmer schedules background rebuilds of period reports.
type Warmer interface {
	EnqueueReportWarmup(ctx context.Context, periods []string) error
}

// Handler coordinates HTTP requests for the order analytics dashboard.
type Handler struct {
	logger    *slog.Logger
	service   ReportService
	formatter *format.Formatter
	charts    ui.Renderers
	pdf       PDFService
	warmer    Warmer
	pages     PageRenderer
	csvPool   sync.Pool
	now       func() time.Time
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService, formatter *format.Formatter, charts ui.Renderers, pdf PDFService) *Handler {
	if formatter == nil {
		formatter = format.MustNew(format.DefaultCurrency, format.DefaultLocale)
	}
	h := &Handler{
		logger:    logger,
		service:   service,
		formatter: formatter,
		charts:    charts,
		pdf:       pdf,
		now:       time.Now,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// WithWarmer enables cache re-warming after invalidation.
func (h *Handler) WithWarmer(w Warmer) {
	h.warmer = w
}

// WithPages enables the HTML dashboard page.
func (h *Handler) WithPages(pages PageRenderer) {
	h.pages = pages
}

type reportResponse struct {
	Report     analytics.Report      `json:"report"`
	Display    ui.DashboardViewModel `json:"display"`
	SnapshotID string                `json:"snapshot_id,omitempty"`
}

type dashboardResponse struct {
	Display ui.DashboardViewModel `json:"display"`
	Charts  map[string]string     `json:"charts"`
}

func (h *Handler) handlePeriods(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	periods, err := h.service.Periods(ctx)
	if err != nil {
		h.respondError(w, "list periods", err)
		return
	}
	if periods == nil {
		periods = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"periods": periods})
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.loadReport(ctx, r)
	if err != nil {
		h.respondError(w, "load report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, reportResponse{
		Report:  report,
		Display: ui.NewDashboardViewModel(report, h.formatter),
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.loadReport(ctx, r)
	if err != nil {
		h.respondError(w, "load report", err)
		return
	}
	vm := ui.NewDashboardViewModel(report, h.formatter)
	charts, err := h.charts.RenderAll(ctx, report, vm)
	if err != nil {
		h.respondError(w, "render charts", err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboardResponse{
		Display: vm,
		Charts: map[string]string{
			ui.ChartStatus: string(charts.Status),
			ui.ChartCosts:  string(charts.Costs),
			ui.ChartFunnel: string(charts.Funnel),
		},
	})
}

// DashboardPage is the data handed to the HTML dashboard template.
type DashboardPage struct {
	View    ui.DashboardViewModel
	Charts  ui.Charts
	Periods []string
	Period  string
	CSVURL  string
	PDFURL  string
}

func (h *Handler) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	if h.pages == nil {
		http.NotFound(w, r)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	periods, err := h.service.Periods(ctx)
	if err != nil {
		h.respondError(w, "list periods", err)
		return
	}
	report, err := h.loadReport(ctx, r)
	if err != nil {
		h.respondError(w, "load report", err)
		return
	}
	vm := ui.NewDashboardViewModel(report, h.formatter)
	charts, err := h.charts.RenderAll(ctx, report, vm)
	if err != nil {
		h.respondError(w, "render charts", err)
		return
	}
	query := url.Values{"period": []string{report.Period}}.Encode()
	page := DashboardPage{
		View:    vm,
		Charts:  charts,
		Periods: periods,
		Period:  report.Period,
		CSVURL:  "/analytics/export.csv?" + query,
		PDFURL:  "/analytics/pdf?" + query,
	}
	data := view.TemplateData{Title: "WebCanteen Analytics " + report.Period, CurrentPath: r.URL.Path, Data: page}
	if err := h.pages.Render(w, "pages/dashboard.html", data); err != nil {
		h.logError("render dashboard page", err)
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	name := chi.URLParam(r, "chart")
	report, err := h.loadReport(ctx, r)
	if err != nil {
		h.respondError(w, "load report", err)
		return
	}
	html, err := h.charts.RenderChart(name, report, ui.NewDashboardViewModel(report, h.formatter))
	if err != nil {
		h.respondError(w, "render chart", err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "private, max-age=60")
	if _, err := w.Write([]byte(html)); err != nil {
		h.logError("stream svg", err)
	}
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.loadReport(ctx, r)
	if err != nil {
		h.respondError(w, "load report", err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteReportCSV(buf, report); err != nil {
		h.respondError(w, "write report csv", err)
		return
	}

	filename := fmt.Sprintf("webcanteen-analytics-%s.csv", report.Period)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		h.respondError(w, "pdf exporter", export.ErrPDFUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), pdfTimeout)
	defer cancel()

	report, err := h.loadReport(ctx, r)
	if err != nil {
		h.respondError(w, "load report", err)
		return
	}
	vm := ui.NewDashboardViewModel(report, h.formatter)
	charts, err := h.charts.RenderAll(ctx, report, vm)
	if err != nil {
		h.respondError(w, "render charts", err)
		return
	}
	pdfBytes, err := h.pdf.RenderReport(ctx, export.ReportPayload{View: vm, Charts: charts})
	if err != nil {
		h.respondError(w, "render pdf", err)
		return
	}

	filename := fmt.Sprintf("webcanteen-analytics-%s.pdf", report.Period)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(pdfBytes); err != nil {
		h.logError("stream pdf", err)
	}
}

func (h *Handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	dataFormat, err := ingest.ParseFormat(r.Header.Get("Content-Type"))
	if err != nil {
		h.respondError(w, "parse content type", err)
		return
	}
	dataset, err := ingest.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), dataFormat)
	if err != nil {
		h.respondError(w, "decode dataset", err)
		return
	}
	if dataset.Period == "" {
		dataset.Period = adhocPeriod
	}

	report := h.service.Compute(dataset)
	resp := reportResponse{
		Report:  report,
		Display: ui.NewDashboardViewModel(report, h.formatter),
	}
	id, err := h.service.SaveSnapshot(ctx, report)
	switch {
	case err == nil:
		resp.SnapshotID = id
		w.Header().Set("Location", "/analytics/snapshots/"+id)
		httpx.JSON(w, http.StatusCreated, resp)
	case errors.Is(err, analytics.ErrSnapshotsDisabled):
		httpx.JSON(w, http.StatusOK, resp)
	default:
		h.respondError(w, "save snapshot", err)
	}
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	report, err := h.service.LoadSnapshot(ctx, id)
	if err != nil {
		h.respondError(w, "load snapshot", err)
		return
	}
	httpx.JSON(w, http.StatusOK, reportResponse{
		Report:     report,
		Display:    ui.NewDashboardViewModel(report, h.formatter),
		SnapshotID: id,
	})
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.service.Invalidate(ctx); err != nil {
		h.respondError(w, "invalidate cache", err)
		return
	}
	warming := false
	if h.warmer != nil {
		if err := h.warmer.EnqueueReportWarmup(ctx, nil); err != nil {
			h.logError("enqueue warmup", err)
		} else {
			warming = true
		}
	}
	httpx.JSON(w, http.StatusAccepted, map[string]any{"status": "invalidated", "warming": warming})
}

// loadReport resolves the requested period, defaulting to the latest one.
func (h *Handler) loadReport(ctx context.Context, r *http.Request) (analytics.Report, error) {
	period := strings.TrimSpace(r.URL.Query().Get("period"))
	if period == "" {
		periods, err := h.service.Periods(ctx)
		if err != nil {
			return analytics.Report{}, err
		}
		if len(periods) == 0 {
			return analytics.Report{}, fmt.Errorf("%w: no datasets available", ingest.ErrPeriodNotFound)
		}
		period = periods[len(periods)-1]
	}
	if !ingest.ValidPeriod(period) {
		return analytics.Report{}, validationError{field: "period"}
	}
	return h.service.Report(ctx, period)
}

type validationProblem struct {
	httpx.ProblemDetail
	Errors []ingest.FieldError `json:"errors,omitempty"`
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	var (
		vErr       validationError
		datasetErr *ingest.ValidationError
		maxErr     *http.MaxBytesError
	)
	switch {
	case errors.As(err, &vErr):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Parameter", vErr.Error())
	case errors.As(err, &maxErr):
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", fmt.Sprintf("dataset exceeds %d bytes", maxErr.Limit))
	case errors.As(err, &datasetErr):
		httpx.WriteProblem(w, http.StatusBadRequest, validationProblem{
			ProblemDetail: httpx.ProblemDetail{Title: "Invalid Dataset", Status: http.StatusBadRequest, Detail: datasetErr.Error()},
			Errors:        datasetErr.Fields,
		})
	case errors.Is(err, ingest.ErrInvalidDataset):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Dataset", err.Error())
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		httpx.Problem(w, http.StatusUnsupportedMediaType, "Unsupported Format", err.Error())
	case errors.Is(err, ingest.ErrPeriodNotFound):
		httpx.Problem(w, http.StatusNotFound, "Period Not Found", err.Error())
	case errors.Is(err, analytics.ErrSnapshotNotFound):
		httpx.Problem(w, http.StatusNotFound, "Snapshot Not Found", err.Error())
	case errors.Is(err, ui.ErrUnknownChart):
		httpx.Problem(w, http.StatusNotFound, "Chart Not Found", err.Error())
	case errors.Is(err, analytics.ErrSnapshotsDisabled), errors.Is(err, export.ErrPDFUnavailable):
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", err.Error())
	case errors.Is(err, context.Canceled):
		if h.logger != nil {
			h.logger.Debug(op, slog.String("reason", "client canceled"))
		}
		httpx.Problem(w, statusClientClosedRequest, "Client Closed Request", "")
	case errors.Is(err, context.DeadlineExceeded):
		h.logError(op, err)
		httpx.Problem(w, http.StatusGatewayTimeout, "Timeout", "")
	default:
		h.logError(op, err)
		httpx.RespondError(w, err)
	}
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}
