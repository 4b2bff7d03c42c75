package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/format"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/ui"
	"github.com/webcanteen/webcanteen-analytics/report"
)

func sampleReport() analytics.Report {
	orders := []analytics.OrderRecord{
		{ID: "1", Status: analytics.StatusDelivered, Value: decimal.NewFromInt(1000), PaymentMode: analytics.PaymentPrepaid},
		{ID: "2", Status: analytics.StatusCancelled, Value: decimal.NewFromInt(500), PaymentMode: analytics.PaymentCOD},
	}
	costs := []analytics.CostEntry{{Category: analytics.CostManufacturing, Amount: decimal.NewFromInt(300)}}
	return analytics.BuildReport(analytics.Dataset{Period: "2024-12", Orders: orders, Costs: costs}, time.Date(2024, 12, 16, 0, 0, 0, 0, time.UTC))
}

func TestWriteSummaryCSV(t *testing.T) {
	report := sampleReport()
	buf := &bytes.Buffer{}
	if err := WriteSummaryCSV(buf, report.Summary, report.Period); err != nil {
		t.Fatalf("summary csv error: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	values := make(map[string]string, len(records))
	for _, record := range records {
		values[record[0]] = record[1]
	}
	if values["Net Profit"] != "700.00" {
		t.Fatalf("unexpected net profit %q", values["Net Profit"])
	}
	if values["Profit Margin"] != "0.7000" {
		t.Fatalf("unexpected margin %q", values["Profit Margin"])
	}
	if values["Period"] != "2024-12" {
		t.Fatalf("unexpected period %q", values["Period"])
	}
}

func TestWriteReportCSVHasEverySection(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteReportCSV(buf, sampleReport()); err != nil {
		t.Fatalf("report csv error: %v", err)
	}
	output := buf.String()
	for _, header := range []string{"Metric,Value", "Status,Orders,Share", "Category,Amount", "Stage,Orders"} {
		if !strings.Contains(output, header) {
			t.Fatalf("expected header %q in %s", header, output)
		}
	}
	if !strings.Contains(output, "Fulfillment Pending,0,0.0000") {
		t.Fatalf("expected empty status bucket")
	}
	if !strings.Contains(output, "After Cancellation,1") {
		t.Fatalf("expected funnel stage")
	}
}

func samplePayload(t *testing.T) ReportPayload {
	t.Helper()
	rep := sampleReport()
	vm := ui.NewDashboardViewModel(rep, format.MustNew("USD", "en"))
	charts, err := ui.SVGRenderers().RenderAll(context.Background(), rep, vm)
	if err != nil {
		t.Fatalf("render charts: %v", err)
	}
	return ReportPayload{View: vm, Charts: charts}
}

func TestBuildHTMLEmbedsChartsAndCards(t *testing.T) {
	html, err := BuildHTML(samplePayload(t))
	if err != nil {
		t.Fatalf("build html: %v", err)
	}
	if !strings.Contains(html, "<svg") {
		t.Fatalf("expected inline svg charts")
	}
	if !strings.Contains(html, "$700") || !strings.Contains(html, "Post-cancellation") {
		t.Fatalf("expected summary cards")
	}
	if !strings.Contains(html, "December 16, 2024") {
		t.Fatalf("expected generated date")
	}
}

func TestPDFExporterRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("unexpected parse error: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("PDF"))
	}))
	defer srv.Close()

	exporter := NewPDFExporter(report.NewClient(srv.URL))
	data, err := exporter.RenderReport(context.Background(), samplePayload(t))
	if err != nil {
		t.Fatalf("pdf render error: %v", err)
	}
	if string(data) != "PDF" {
		t.Fatalf("unexpected payload %q", string(data))
	}
}

func TestPDFExporterWithoutRenderer(t *testing.T) {
	var exporter *PDFExporter
	if _, err := exporter.RenderReport(context.Background(), ReportPayload{}); !errors.Is(err, ErrPDFUnavailable) {
		t.Fatalf("expected ErrPDFUnavailable, got %v", err)
	}
}
