package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics/ui"
)

// ErrPDFUnavailable is returned when no Gotenberg renderer is configured.
var ErrPDFUnavailable = errors.New("export: pdf renderer not configured")

// HTMLRenderer converts an HTML document to PDF bytes.
type HTMLRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// ReportPayload aggregates a formatted report destined for PDF rendering.
type ReportPayload struct {
	View   ui.DashboardViewModel
	Charts ui.Charts
}

// PDFExporter renders report documents through Gotenberg.
type PDFExporter struct {
	Renderer HTMLRenderer
}

// NewPDFExporter wires the exporter with an HTML renderer.
func NewPDFExporter(renderer HTMLRenderer) *PDFExporter {
	return &PDFExporter{Renderer: renderer}
}

// RenderReport builds the HTML document for payload and returns the PDF bytes.
func (p *PDFExporter) RenderReport(ctx context.Context, payload ReportPayload) ([]byte, error) {
	if p == nil || p.Renderer == nil {
		return nil, ErrPDFUnavailable
	}
	html, err := BuildHTML(payload)
	if err != nil {
		return nil, err
	}
	pdf, err := p.Renderer.RenderHTML(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, nil
}

var documentTemplate = template.Must(template.New("report").Parse(`<html><head><meta charset="utf-8"><title>WebCanteen {{.View.Period}}</title><style>
body{font-family:sans-serif;margin:24px;color:#111827;}h1{font-size:22px;margin-bottom:4px;}h2{font-size:16px;}
.cards{display:flex;gap:12px;margin:16px 0;}.card{flex:1;border:1px solid #e5e7eb;border-radius:6px;padding:12px;}
.card .value{font-size:20px;font-weight:bold;}.card .sub{color:#6b7280;font-size:12px;}
table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}
.metric-label{text-align:left;}section{margin-bottom:24px;page-break-inside:avoid;}svg{width:100%;height:auto;}
</style></head><body>
<h1>WebCanteen</h1><p>Enterprise Performance Analytics · {{.View.Period}} · Generated {{.View.GeneratedAt.Format "January 2, 2006"}}</p>
<div class="cards">{{range .View.Cards}}<div class="card"><div>{{.Title}}</div><div class="value">{{.Value}}</div><div class="sub">{{.Subtitle}}</div></div>{{end}}</div>
{{with .Charts.Status}}<section><h2>Order Status Distribution</h2>{{.}}</section>{{end}}
{{with .Charts.Costs}}<section><h2>Cost Structure Analysis</h2>{{.}}</section>{{end}}
{{with .Charts.Funnel}}<section><h2>Order Flow Analysis</h2>{{.}}</section>{{end}}
<section><h2>Order Status</h2><table><thead><tr><th>Status</th><th>Orders</th><th>Share</th></tr></thead><tbody>
{{range .View.Status}}<tr><td class="metric-label">{{.Label}}</td><td>{{.Count}}</td><td>{{.Share}}</td></tr>{{end}}
</tbody></table></section>
{{range .View.Sections}}<section><h2>{{.Title}}</h2><table><tbody>
{{range .Metrics}}<tr><td class="metric-label">{{.Label}}</td><td>{{.Value}}</td></tr>{{end}}
</tbody></table></section>{{end}}
</body></html>`))

// BuildHTML renders the printable report document.
func BuildHTML(payload ReportPayload) (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, payload); err != nil {
		return "", fmt.Errorf("build report html: %w", err)
	}
	return buf.String(), nil
}
