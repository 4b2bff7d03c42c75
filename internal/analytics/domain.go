package analytics

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the terminal state recorded for an order.
type OrderStatus string

// Order statuses in the order they are reported.
const (
	StatusDelivered          OrderStatus = "delivered"
	StatusCancelled          OrderStatus = "cancelled"
	StatusRTO                OrderStatus = "rto"
	StatusFulfillmentPending OrderStatus = "fulfillment_pending"
	StatusMisc               OrderStatus = "misc"
)

var orderStatuses = []OrderStatus{
	StatusDelivered,
	StatusCancelled,
	StatusRTO,
	StatusFulfillmentPending,
	StatusMisc,
}

var statusLabels = map[OrderStatus]string{
	StatusDelivered:          "Delivered",
	StatusCancelled:          "Cancelled",
	StatusRTO:                "RTO",
	StatusFulfillmentPending: "Fulfillment Pending",
	StatusMisc:               "Misc",
}

// OrderStatuses returns every known status in reporting order.
func OrderStatuses() []OrderStatus {
	return append([]OrderStatus(nil), orderStatuses...)
}

// Label returns the display name of the status.
func (s OrderStatus) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// ParseOrderStatus resolves a status from its code or display name.
// Matching ignores case, spaces, dashes and underscores.
func ParseOrderStatus(v string) (OrderStatus, bool) {
	key := normalizeCode(v)
	for _, status := range orderStatuses {
		if key == normalizeCode(string(status)) {
			return status, true
		}
	}
	return "", false
}

// PaymentMode captures how the customer paid.
type PaymentMode string

// Supported payment modes.
const (
	PaymentPrepaid PaymentMode = "prepaid"
	PaymentCOD     PaymentMode = "cod"
)

// ParsePaymentMode resolves a payment mode, accepting "cash on delivery" for COD.
func ParsePaymentMode(v string) (PaymentMode, bool) {
	switch normalizeCode(v) {
	case "prepaid":
		return PaymentPrepaid, true
	case "cod", "cashondelivery":
		return PaymentCOD, true
	}
	return "", false
}

// CostCategory groups period level costs.
type CostCategory string

// Cost categories in the order they are reported.
const (
	CostManufacturing CostCategory = "manufacturing"
	CostMarketing     CostCategory = "marketing"
	CostShipping      CostCategory = "shipping"
)

var costCategories = []CostCategory{CostManufacturing, CostMarketing, CostShipping}

// CostCategories returns every known cost category in reporting order.
func CostCategories() []CostCategory {
	return append([]CostCategory(nil), costCategories...)
}

// Label returns the display name of the category.
func (c CostCategory) Label() string {
	switch c {
	case CostManufacturing:
		return "Manufacturing"
	case CostMarketing:
		return "Marketing"
	case CostShipping:
		return "Shipping"
	}
	return string(c)
}

// ParseCostCategory resolves a cost category from its code or display name.
func ParseCostCategory(v string) (CostCategory, bool) {
	key := normalizeCode(v)
	for _, category := range costCategories {
		if key == string(category) {
			return category, true
		}
	}
	return "", false
}

func normalizeCode(v string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(v)))
}

// OrderRecord is one historical order. Records are never mutated after ingestion.
type OrderRecord struct {
	ID                string          `json:"id"`
	Status            OrderStatus     `json:"status"`
	Value             decimal.Decimal `json:"value"`
	PaymentMode       PaymentMode     `json:"payment_mode"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	ManufacturingCost decimal.Decimal `json:"manufacturing_cost"`
}

// CostEntry is the total of one cost category for a reporting period.
type CostEntry struct {
	Category CostCategory    `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Dataset is the validated input for a single reporting period.
type Dataset struct {
	Period string        `json:"period"`
	Orders []OrderRecord `json:"orders"`
	Costs  []CostEntry   `json:"costs"`
}

// PeriodSummary holds the headline figures derived from a dataset.
type PeriodSummary struct {
	TotalOrders            int `json:"total_orders"`
	DeliveredOrders        int `json:"delivered_orders"`
	CancelledOrders        int `json:"cancelled_orders"`
	RTOOrders              int `json:"rto_orders"`
	PostCancellationOrders int `json:"post_cancellation_orders"`
	PrepaidOrders          int `json:"prepaid_orders"`

	GrossRevenue decimal.Decimal `json:"gross_revenue"`
	NetRevenue   decimal.Decimal `json:"net_revenue"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	NetProfit    decimal.Decimal `json:"net_profit"`
	ProfitMargin float64         `json:"profit_margin"`

	DeliveryRate     float64 `json:"delivery_rate"`
	CancellationRate float64 `json:"cancellation_rate"`
	RTORate          float64 `json:"rto_rate"`
	PrepaidRatio     float64 `json:"prepaid_ratio"`

	AverageOrderValue     decimal.Decimal `json:"average_order_value"`
	CostPerOrder          decimal.Decimal `json:"cost_per_order"`
	ShippingPerOrder      decimal.Decimal `json:"shipping_per_order"`
	ManufacturingPerOrder decimal.Decimal `json:"manufacturing_per_order"`
}

// StatusCount is one slice of the status distribution.
type StatusCount struct {
	Status OrderStatus `json:"status"`
	Label  string      `json:"label"`
	Count  int         `json:"count"`
	Share  float64     `json:"share"`
}

// CostSlice is one bar of the cost breakdown.
type CostSlice struct {
	Category CostCategory    `json:"category"`
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
}

// FunnelStageKey identifies a stage of the order-flow funnel.
type FunnelStageKey string

// Funnel stages in declared order.
const (
	StageTotal             FunnelStageKey = "total"
	StageAfterCancellation FunnelStageKey = "after_cancellation"
	StageAfterRTO          FunnelStageKey = "after_rto"
	StageDelivered         FunnelStageKey = "delivered"
)

// FunnelStage is the number of orders remaining at a stage.
type FunnelStage struct {
	Stage FunnelStageKey `json:"stage"`
	Label string         `json:"label"`
	Count int            `json:"count"`
}

// ChartSeries bundles the three chart-ready series.
type ChartSeries struct {
	StatusDistribution []StatusCount `json:"status_distribution"`
	CostBreakdown      []CostSlice   `json:"cost_breakdown"`
	Funnel             []FunnelStage `json:"funnel"`
}

// Report is the full derived view of a dataset.
type Report struct {
	Period      string        `json:"period"`
	GeneratedAt time.Time     `json:"generated_at"`
	Summary     PeriodSummary `json:"summary"`
	Charts      ChartSeries   `json:"charts"`
}
