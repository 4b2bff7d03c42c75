package perf

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
	"github.com/webcanteen/webcanteen-analytics/internal/ingest"
)

var statuses = []analytics.OrderStatus{
	analytics.StatusDelivered,
	analytics.StatusCancelled,
	analytics.StatusRTO,
	analytics.StatusFulfillmentPending,
	analytics.StatusMisc,
}

// syntheticDataset builds n orders with a deterministic status and payment mix.
func syntheticDataset(period string, n int) analytics.Dataset {
	orders := make([]analytics.OrderRecord, n)
	for i := range orders {
		status := statuses[0]
		switch {
		case i%19 == 0:
			status = statuses[3+i%2]
		case i%5 == 1:
			status = statuses[1]
		case i%5 == 2:
			status = statuses[2]
		}
		mode := analytics.PaymentCOD
		if i%3 == 0 {
			mode = analytics.PaymentPrepaid
		}
		orders[i] = analytics.OrderRecord{
			ID:          fmt.Sprintf("WC-%06d", i),
			Status:      status,
			Value:       decimal.NewFromInt(int64(600 + i%800)),
			PaymentMode: mode,
		}
	}
	return analytics.Dataset{
		Period: period,
		Orders: orders,
		Costs: []analytics.CostEntry{
			{Category: analytics.CostManufacturing, Amount: decimal.NewFromInt(387000)},
			{Category: analytics.CostMarketing, Amount: decimal.NewFromInt(321482)},
			{Category: analytics.CostShipping, Amount: decimal.NewFromInt(92000)},
		},
	}
}

type memorySource struct {
	datasets map[string]analytics.Dataset
}

func newMemorySource(periods ...string) memorySource {
	src := memorySource{datasets: make(map[string]analytics.Dataset, len(periods))}
	for _, p := range periods {
		src.datasets[p] = syntheticDataset(p, 1622)
	}
	return src
}

func (m memorySource) Load(ctx context.Context, period string) (analytics.Dataset, error) {
	dataset, ok := m.datasets[period]
	if !ok {
		return analytics.Dataset{}, ingest.ErrPeriodNotFound
	}
	return dataset, nil
}

func (m memorySource) Periods(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(m.datasets))
	for p := range m.datasets {
		out = append(out, p)
	}
	return out, nil
}

func (m memorySource) Fingerprint(ctx context.Context, period string) (string, error) {
	if _, ok := m.datasets[period]; !ok {
		return "", ingest.ErrPeriodNotFound
	}
	return "static", nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
