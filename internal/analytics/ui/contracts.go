package ui

import (
	"html/template"
	"time"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/format"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/svg"
)

// Card is one headline tile of the executive summary.
type Card struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Value    string `json:"value"`
	Subtitle string `json:"subtitle"`
}

// Metric is a labelled display value inside a metrics section.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Section groups related metrics under a heading.
type Section struct {
	Title   string   `json:"title"`
	Metrics []Metric `json:"metrics"`
}

// StatusRow is a formatted slice of the status distribution.
type StatusRow struct {
	Status analytics.OrderStatus `json:"status"`
	Label  string                `json:"label"`
	Count  string                `json:"count"`
	Share  string                `json:"share"`
	Color  string                `json:"color"`
}

// CostRow is a formatted bar of the cost breakdown.
type CostRow struct {
	Category analytics.CostCategory `json:"category"`
	Label    string                 `json:"label"`
	Amount   string                 `json:"amount"`
	Color    string                 `json:"color"`
}

// FunnelRow is a formatted funnel stage.
type FunnelRow struct {
	Stage analytics.FunnelStageKey `json:"stage"`
	Label string                   `json:"label"`
	Count string                   `json:"count"`
}

// DashboardViewModel holds every display string derived from a report.
type DashboardViewModel struct {
	Period      string      `json:"period"`
	GeneratedAt time.Time   `json:"generated_at"`
	Currency    string      `json:"currency"`
	Cards       []Card      `json:"cards"`
	Sections    []Section   `json:"sections"`
	Status      []StatusRow `json:"status_distribution"`
	Costs       []CostRow   `json:"cost_breakdown"`
	Funnel      []FunnelRow `json:"funnel"`
}

// Charts carries the rendered SVG documents for a report.
type Charts struct {
	Status template.HTML
	Costs  template.HTML
	Funnel template.HTML
}

// PieRenderer abstracts SVG pie chart rendering for the status distribution.
type PieRenderer interface {
	Pie(width, height int, values []float64, labels []string, opts svg.PieOpts) (template.HTML, error)
}

// BarRenderer abstracts SVG bar chart rendering for the cost breakdown.
type BarRenderer interface {
	Bars(width, height int, series []float64, labels []string, opts svg.BarOpts) (template.HTML, error)
}

// LineRenderer abstracts SVG line chart rendering for the funnel.
type LineRenderer interface {
	Line(width, height int, series []float64, labels []string, opts svg.LineOpts) (template.HTML, error)
}

var statusColors = map[analytics.OrderStatus]string{
	analytics.StatusDelivered:          "#0ea5e9",
	analytics.StatusCancelled:          "#ef4444",
	analytics.StatusRTO:                "#f97316",
	analytics.StatusFulfillmentPending: "#eab308",
	analytics.StatusMisc:               "#6366f1",
}

var costColors = map[analytics.CostCategory]string{
	analytics.CostManufacturing: "#0ea5e9",
	analytics.CostMarketing:     "#6366f1",
	analytics.CostShipping:      "#f97316",
}

// StatusColor returns the dashboard colour for a status.
func StatusColor(status analytics.OrderStatus) string {
	return statusColors[status]
}

// CostColor returns the dashboard colour for a cost category.
func CostColor(category analytics.CostCategory) string {
	return costColors[category]
}

// NewDashboardViewModel formats a report for display.
func NewDashboardViewModel(report analytics.Report, f *format.Formatter) DashboardViewModel {
	s := report.Summary
	vm := DashboardViewModel{
		Period:      report.Period,
		GeneratedAt: report.GeneratedAt,
		Currency:    f.Code(),
	}

	vm.Cards = []Card{
		{Key: "revenue", Title: "Revenue", Value: f.Currency(s.NetRevenue), Subtitle: "From delivered orders"},
		{Key: "net_profit", Title: "Net Profit", Value: f.Currency(s.NetProfit), Subtitle: f.Percent(s.ProfitMargin) + " Profit Margin"},
		{Key: "orders", Title: "Orders", Value: f.Count(s.TotalOrders), Subtitle: f.Percent(s.DeliveryRate) + " Delivery Rate"},
		{Key: "rto_rate", Title: "RTO Rate", Value: f.Percent(s.RTORate), Subtitle: "Post-cancellation"},
	}

	vm.Sections = []Section{
		{Title: "Financial Metrics", Metrics: []Metric{
			{Label: "Gross Revenue", Value: f.Currency(s.GrossRevenue)},
			{Label: "Net Revenue", Value: f.Currency(s.NetRevenue)},
			{Label: "Total Costs", Value: f.Currency(s.TotalCost)},
			{Label: "Profit Margin", Value: f.Percent(s.ProfitMargin)},
		}},
		{Title: "Operational Metrics", Metrics: []Metric{
			{Label: "Delivery Rate", Value: f.Percent(s.DeliveryRate)},
			{Label: "Cancellation Rate", Value: f.Percent(s.CancellationRate)},
			{Label: "RTO Rate", Value: f.Percent(s.RTORate)},
			{Label: "Prepaid Ratio", Value: f.Percent(s.PrepaidRatio)},
		}},
		{Title: "Cost Analysis", Metrics: []Metric{
			{Label: "Avg Order Value", Value: f.Currency(s.AverageOrderValue)},
			{Label: "Cost per Order", Value: f.Currency(s.CostPerOrder)},
			{Label: "Shipping per Order", Value: f.Currency(s.ShippingPerOrder)},
			{Label: "Manufacturing Cost", Value: f.Currency(s.ManufacturingPerOrder)},
		}},
	}

	for _, row := range report.Charts.StatusDistribution {
		vm.Status = append(vm.Status, StatusRow{
			Status: row.Status,
			Label:  row.Label,
			Count:  f.Count(row.Count),
			Share:  f.Percent(row.Share),
			Color:  StatusColor(row.Status),
		})
	}
	for _, row := range report.Charts.CostBreakdown {
		vm.Costs = append(vm.Costs, CostRow{
			Category: row.Category,
			Label:    row.Label,
			Amount:   f.Currency(row.Amount),
			Color:    CostColor(row.Category),
		})
	}
	for _, stage := range report.Charts.Funnel {
		vm.Funnel = append(vm.Funnel, FunnelRow{
			Stage: stage.Stage,
			Label: stage.Label,
			Count: f.Count(stage.Count),
		})
	}
	return vm
}
