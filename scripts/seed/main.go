package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
	"github.com/webcanteen/webcanteen-analytics/internal/ingest"
)

// December 2024 figures from the WebCanteen executive dashboard.
var (
	statusMix = []struct {
		status analytics.OrderStatus
		count  int
	}{
		{analytics.StatusDelivered, 860},
		{analytics.StatusCancelled, 348},
		{analytics.StatusRTO, 361},
		{analytics.StatusFulfillmentPending, 27},
		{analytics.StatusMisc, 26},
	}
	deliveredRevenue = int64(861732)
	grossRevenue     = int64(1632667)
	prepaidOrders    = 146
	periodCosts      = []analytics.CostEntry{
		{Category: analytics.CostManufacturing, Amount: decimal.NewFromInt(387000)},
		{Category: analytics.CostMarketing, Amount: decimal.NewFromInt(321482)},
		{Category: analytics.CostShipping, Amount: decimal.NewFromInt(92000)},
	}
)

func main() {
	dir := flag.String("dir", getenv("DATASET_DIR", "data"), "output directory")
	period := flag.String("period", "2024-12", "period label, also the file name")
	formatName := flag.String("format", "json", "json or yaml")
	seed := flag.Uint64("seed", 20241216, "random seed")
	flag.Parse()

	if !ingest.ValidPeriod(*period) {
		log.Fatalf("invalid period %q", *period)
	}
	format, err := ingest.ParseFormat(*formatName)
	if err != nil {
		log.Fatalf("format: %v", err)
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("create dir: %v", err)
	}

	dataset := generate(*period, rand.New(rand.NewPCG(*seed, *seed>>1)))
	path := filepath.Join(*dir, fmt.Sprintf("%s.%s", *period, format))
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("create %s: %v", path, err)
	}
	if err := ingest.Encode(f, dataset, format); err != nil {
		_ = f.Close()
		log.Fatalf("encode dataset: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("close %s: %v", path, err)
	}

	summary := analytics.ComputeSummary(dataset.Orders, dataset.Costs)
	fmt.Printf("→ wrote %d orders to %s (net revenue %s, net profit %s)\n",
		summary.TotalOrders, path, summary.NetRevenue.String(), summary.NetProfit.String())
}

func generate(period string, rng *rand.Rand) analytics.Dataset {
	var orders []analytics.OrderRecord
	deliveredValues := spread(deliveredRevenue, statusMix[0].count, rng)
	otherCount := 0
	for _, mix := range statusMix[1:] {
		otherCount += mix.count
	}
	otherValues := spread(grossRevenue-deliveredRevenue, otherCount, rng)
	seq, other := 0, 0
	for _, mix := range statusMix {
		for i := 0; i < mix.count; i++ {
			seq++
			var value decimal.Decimal
			if mix.status == analytics.StatusDelivered {
				value = decimal.NewFromInt(deliveredValues[i])
			} else {
				value = decimal.NewFromInt(otherValues[other])
				other++
			}
			orders = append(orders, analytics.OrderRecord{
				ID:                fmt.Sprintf("WC-%s-%04d", period, seq),
				Status:            mix.status,
				Value:             value,
				PaymentMode:       analytics.PaymentCOD,
				ShippingCost:      decimal.NewFromInt(int64(45 + rng.IntN(40))),
				ManufacturingCost: value.Mul(decimal.NewFromFloat(0.45)).Round(0),
			})
		}
	}
	rng.Shuffle(len(orders), func(i, j int) { orders[i], orders[j] = orders[j], orders[i] })
	for i := 0; i < prepaidOrders && i < len(orders); i++ {
		orders[i].PaymentMode = analytics.PaymentPrepaid
	}
	rng.Shuffle(len(orders), func(i, j int) { orders[i], orders[j] = orders[j], orders[i] })
	return analytics.Dataset{Period: period, Orders: orders, Costs: periodCosts}
}

// spread splits total into n positive integer values that sum exactly to total.
func spread(total int64, n int, rng *rand.Rand) []int64 {
	values := make([]int64, n)
	base, rem := total/int64(n), total%int64(n)
	for i := range values {
		values[i] = base
		if int64(i) < rem {
			values[i]++
		}
	}
	for i := 0; i+1 < n; i += 2 {
		delta := int64(rng.IntN(int(base / 2)))
		values[i] += delta
		values[i+1] -= delta
	}
	return values
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
