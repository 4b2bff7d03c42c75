package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
)

// WriteSummaryCSV serialises the period summary to a Metric,Value table.
func WriteSummaryCSV(w io.Writer, summary analytics.PeriodSummary, period string) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Period", period},
		{"Total Orders", strconv.Itoa(summary.TotalOrders)},
		{"Delivered Orders", strconv.Itoa(summary.DeliveredOrders)},
		{"Cancelled Orders", strconv.Itoa(summary.CancelledOrders)},
		{"RTO Orders", strconv.Itoa(summary.RTOOrders)},
		{"Gross Revenue", formatMoney(summary.GrossRevenue)},
		{"Net Revenue", formatMoney(summary.NetRevenue)},
		{"Total Costs", formatMoney(summary.TotalCost)},
		{"Net Profit", formatMoney(summary.NetProfit)},
		{"Profit Margin", formatFloat(summary.ProfitMargin)},
		{"Delivery Rate", formatFloat(summary.DeliveryRate)},
		{"Cancellation Rate", formatFloat(summary.CancellationRate)},
		{"RTO Rate", formatFloat(summary.RTORate)},
		{"Prepaid Ratio", formatFloat(summary.PrepaidRatio)},
		{"Avg Order Value", formatMoney(summary.AverageOrderValue)},
		{"Cost per Order", formatMoney(summary.CostPerOrder)},
		{"Shipping per Order", formatMoney(summary.ShippingPerOrder)},
		{"Manufacturing per Order", formatMoney(summary.ManufacturingPerOrder)},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteStatusCSV emits the status distribution as CSV.
func WriteStatusCSV(w io.Writer, rows []analytics.StatusCount) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Status", "Orders", "Share"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{row.Label, strconv.Itoa(row.Count), formatFloat(row.Share)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCostsCSV emits the cost breakdown as CSV.
func WriteCostsCSV(w io.Writer, rows []analytics.CostSlice) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Category", "Amount"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write([]string{row.Label, formatMoney(row.Amount)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFunnelCSV emits the order-flow funnel as CSV.
func WriteFunnelCSV(w io.Writer, stages []analytics.FunnelStage) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Stage", "Orders"}); err != nil {
		return err
	}
	for _, stage := range stages {
		if err := writer.Write([]string{stage.Label, strconv.Itoa(stage.Count)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteReportCSV writes every section of a report separated by blank lines.
func WriteReportCSV(w io.Writer, report analytics.Report) error {
	sections := []func(io.Writer) error{
		func(w io.Writer) error { return WriteSummaryCSV(w, report.Summary, report.Period) },
		func(w io.Writer) error { return WriteStatusCSV(w, report.Charts.StatusDistribution) },
		func(w io.Writer) error { return WriteCostsCSV(w, report.Charts.CostBreakdown) },
		func(w io.Writer) error { return WriteFunnelCSV(w, report.Charts.Funnel) },
	}
	for i, section := range sections {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := section(w); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatMoney(v decimal.Decimal) string {
	return v.StringFixed(2)
}
