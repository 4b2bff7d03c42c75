package ui

import (
	"context"
	"errors"
	"fmt"
	"html/template"

	"golang.org/x/sync/errgroup"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/svg"
)

// Chart names accepted by RenderChart.
const (
	ChartStatus = "status"
	ChartCosts  = "costs"
	ChartFunnel = "funnel"
)

// ErrUnknownChart is returned for chart names other than status, costs and funnel.
var ErrUnknownChart = errors.New("ui: unknown chart")

// Renderers bundles the chart renderers used for a report.
type Renderers struct {
	Pie  PieRenderer
	Bar  BarRenderer
	Line LineRenderer
}

// RenderChart draws a single chart for the view model.
func (r Renderers) RenderChart(name string, report analytics.Report, vm DashboardViewModel) (template.HTML, error) {
	switch name {
	case ChartStatus:
		if r.Pie == nil {
			return "", fmt.Errorf("pie renderer missing")
		}
		values := make([]float64, 0, len(report.Charts.StatusDistribution))
		labels := make([]string, 0, len(report.Charts.StatusDistribution))
		colors := make([]string, 0, len(report.Charts.StatusDistribution))
		shares := make([]string, 0, len(report.Charts.StatusDistribution))
		for i, row := range report.Charts.StatusDistribution {
			values = append(values, float64(row.Count))
			labels = append(labels, row.Label)
			colors = append(colors, StatusColor(row.Status))
			if i < len(vm.Status) {
				shares = append(shares, vm.Status[i].Share)
			}
		}
		if len(shares) != len(values) {
			shares = nil
		}
		return r.Pie.Pie(svg.DefaultWidth, 320, values, labels, svg.PieOpts{
			Title:       "Order Status Distribution",
			Description: "Overview of current order statuses",
			Colors:      colors,
			EmptyLabel:  "No orders",
			ValueLabels: shares,
			ShowLegend:  true,
		})
	case ChartCosts:
		if r.Bar == nil {
			return "", fmt.Errorf("bar renderer missing")
		}
		series := make([]float64, 0, len(report.Charts.CostBreakdown))
		labels := make([]string, 0, len(report.Charts.CostBreakdown))
		colors := make([]string, 0, len(report.Charts.CostBreakdown))
		amounts := make([]string, 0, len(report.Charts.CostBreakdown))
		for i, row := range report.Charts.CostBreakdown {
			series = append(series, row.Amount.InexactFloat64())
			labels = append(labels, row.Label)
			colors = append(colors, CostColor(row.Category))
			if i < len(vm.Costs) {
				amounts = append(amounts, vm.Costs[i].Amount)
			}
		}
		if len(amounts) != len(series) {
			amounts = nil
		}
		return r.Bar.Bars(svg.DefaultWidth, svg.DefaultHeight, series, labels, svg.BarOpts{
			Title:       "Cost Structure Analysis",
			Description: "Breakdown of operational costs",
			Colors:      colors,
			ValueLabels: amounts,
		})
	case ChartFunnel:
		if r.Line == nil {
			return "", fmt.Errorf("line renderer missing")
		}
		series := make([]float64, 0, len(report.Charts.Funnel))
		labels := make([]string, 0, len(report.Charts.Funnel))
		counts := make([]string, 0, len(report.Charts.Funnel))
		for i, stage := range report.Charts.Funnel {
			series = append(series, float64(stage.Count))
			labels = append(labels, stage.Label)
			if i < len(vm.Funnel) {
				counts = append(counts, vm.Funnel[i].Count)
			}
		}
		if len(counts) != len(series) {
			counts = nil
		}
		return r.Line.Line(svg.DefaultWidth, svg.DefaultHeight, series, labels, svg.LineOpts{
			Title:       "Order Flow Analysis",
			Description: "Order progression through fulfillment stages",
			StrokeColor: "#0ea5e9",
			FillColor:   "rgba(14,165,233,0.12)",
			ShowDots:    true,
			ValueLabels: counts,
		})
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownChart, name)
}

// RenderAll draws the three charts concurrently.
func (r Renderers) RenderAll(ctx context.Context, report analytics.Report, vm DashboardViewModel) (Charts, error) {
	var charts Charts
	g, ctx := errgroup.WithContext(ctx)
	targets := map[string]*template.HTML{
		ChartStatus: &charts.Status,
		ChartCosts:  &charts.Costs,
		ChartFunnel: &charts.Funnel,
	}
	for name, dest := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			html, err := r.RenderChart(name, report, vm)
			if err != nil {
				return fmt.Errorf("render %s chart: %w", name, err)
			}
			*dest = html
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Charts{}, err
	}
	return charts, nil
}

type svgRenderer struct{}

func (svgRenderer) Pie(width, height int, values []float64, labels []string, opts svg.PieOpts) (template.HTML, error) {
	return svg.Pie(width, height, values, labels, opts)
}

func (svgRenderer) Bars(width, height int, series []float64, labels []string, opts svg.BarOpts) (template.HTML, error) {
	return svg.Bars(width, height, series, labels, opts)
}

func (svgRenderer) Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error) {
	return svg.Line(width, height, series, labels, opts)
}

// SVGRenderers returns renderers backed by the svg package.
func SVGRenderers() Renderers {
	r := svgRenderer{}
	return Renderers{Pie: r, Bar: r, Line: r}
}
