package main

import (
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
)

func TestGenerateMatchesDecemberDashboard(t *testing.T) {
	dataset := generate("2024-12", rand.New(rand.NewPCG(20241216, 20241216>>1)))
	summary := analytics.ComputeSummary(dataset.Orders, dataset.Costs)

	require.Equal(t, 1622, summary.TotalOrders)
	require.True(t, summary.GrossRevenue.Equal(decimal.NewFromInt(1632667)), summary.GrossRevenue.String())
	require.True(t, summary.NetRevenue.Equal(decimal.NewFromInt(861732)), summary.NetRevenue.String())
	require.Equal(t, 146, summary.PrepaidOrders)
	require.InDelta(t, 0.090, summary.PrepaidRatio, 0.0005)
	require.InDelta(t, 0.530, summary.DeliveryRate, 0.0005)

	seen := make(map[string]struct{}, len(dataset.Orders))
	for _, order := range dataset.Orders {
		require.True(t, order.Value.IsPositive(), order.ID)
		_, dup := seen[order.ID]
		require.False(t, dup, order.ID)
		seen[order.ID] = struct{}{}
	}
}
