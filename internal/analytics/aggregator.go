package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComputeSummary derives the period summary from validated orders and costs.
// It never fails: empty inputs yield zero amounts and zero rates.
func ComputeSummary(orders []OrderRecord, costs []CostEntry) PeriodSummary {
	var (
		summary  PeriodSummary
		gross    = decimal.Zero
		net      = decimal.Zero
		total    = decimal.Zero
		shipping = decimal.Zero
		manufact = decimal.Zero
	)

	for _, order := range orders {
		summary.TotalOrders++
		gross = gross.Add(order.Value)
		switch order.Status {
		case StatusDelivered:
			summary.DeliveredOrders++
			net = net.Add(order.Value)
		case StatusCancelled:
			summary.CancelledOrders++
		case StatusRTO:
			summary.RTOOrders++
		}
		if order.PaymentMode == PaymentPrepaid {
			summary.PrepaidOrders++
		}
	}

	for _, cost := range costs {
		total = total.Add(cost.Amount)
		switch cost.Category {
		case CostShipping:
			shipping = shipping.Add(cost.Amount)
		case CostManufacturing:
			manufact = manufact.Add(cost.Amount)
		}
	}

	summary.PostCancellationOrders = summary.TotalOrders - summary.CancelledOrders

	summary.GrossRevenue = gross
	summary.NetRevenue = net
	summary.TotalCost = total
	summary.NetProfit = net.Sub(total)
	if !net.IsZero() {
		summary.ProfitMargin = summary.NetProfit.Div(net).InexactFloat64()
	}

	summary.DeliveryRate = ratio(summary.DeliveredOrders, summary.TotalOrders)
	summary.CancellationRate = ratio(summary.CancelledOrders, summary.TotalOrders)
	summary.RTORate = ratio(summary.RTOOrders, summary.PostCancellationOrders)
	summary.PrepaidRatio = ratio(summary.PrepaidOrders, summary.TotalOrders)

	summary.AverageOrderValue = perOrder(net, summary.DeliveredOrders)
	summary.CostPerOrder = perOrder(total, summary.TotalOrders)
	summary.ShippingPerOrder = perOrder(shipping, summary.DeliveredOrders)
	summary.ManufacturingPerOrder = perOrder(manufact, summary.DeliveredOrders)

	return summary
}

// ComputeChartSeries derives the status distribution, cost breakdown and
// order-flow funnel. Every known status and category is present, in
// declared order, even when its value is zero.
func ComputeChartSeries(orders []OrderRecord, costs []CostEntry) ChartSeries {
	counts := make(map[OrderStatus]int, len(orderStatuses))
	for _, order := range orders {
		status := order.Status
		if _, ok := statusLabels[status]; !ok {
			status = StatusMisc
		}
		counts[status]++
	}

	distribution := make([]StatusCount, 0, len(orderStatuses))
	for _, status := range orderStatuses {
		distribution = append(distribution, StatusCount{
			Status: status,
			Label:  status.Label(),
			Count:  counts[status],
			Share:  ratio(counts[status], len(orders)),
		})
	}

	amounts := make(map[CostCategory]decimal.Decimal, len(costCategories))
	for _, cost := range costs {
		current, ok := amounts[cost.Category]
		if !ok {
			current = decimal.Zero
		}
		amounts[cost.Category] = current.Add(cost.Amount)
	}

	breakdown := make([]CostSlice, 0, len(costCategories))
	for _, category := range costCategories {
		amount, ok := amounts[category]
		if !ok {
			amount = decimal.Zero
		}
		breakdown = append(breakdown, CostSlice{Category: category, Label: category.Label(), Amount: amount})
	}

	return ChartSeries{
		StatusDistribution: distribution,
		CostBreakdown:      breakdown,
		Funnel:             funnel(orders),
	}
}

// BuildReport runs both derivations for a dataset.
func BuildReport(dataset Dataset, generatedAt time.Time) Report {
	return Report{
		Period:      dataset.Period,
		GeneratedAt: generatedAt.UTC(),
		Summary:     ComputeSummary(dataset.Orders, dataset.Costs),
		Charts:      ComputeChartSeries(dataset.Orders, dataset.Costs),
	}
}

func funnel(orders []OrderRecord) []FunnelStage {
	afterCancellation := filterOrders(orders, func(o OrderRecord) bool { return o.Status != StatusCancelled })
	afterRTO := filterOrders(afterCancellation, func(o OrderRecord) bool { return o.Status != StatusRTO })
	delivered := filterOrders(afterRTO, func(o OrderRecord) bool { return o.Status == StatusDelivered })

	return []FunnelStage{
		{Stage: StageTotal, Label: "Total Orders", Count: len(orders)},
		{Stage: StageAfterCancellation, Label: "After Cancellation", Count: len(afterCancellation)},
		{Stage: StageAfterRTO, Label: "After RTO", Count: len(afterRTO)},
		{Stage: StageDelivered, Label: "Delivered", Count: len(delivered)},
	}
}

func filterOrders(orders []OrderRecord, keep func(OrderRecord) bool) []OrderRecord {
	out := make([]OrderRecord, 0, len(orders))
	for _, order := range orders {
		if keep(order) {
			out = append(out, order)
		}
	}
	return out
}

func ratio(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func perOrder(amount decimal.Decimal, orders int) decimal.Decimal {
	if orders <= 0 {
		return decimal.Zero
	}
	return amount.Div(decimal.NewFromInt(int64(orders)))
}
