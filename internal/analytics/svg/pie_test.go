package svg

import (
	"strings"
	"testing"
)

func TestPieProducesSlices(t *testing.T) {
	html, err := Pie(480, 240, []float64{860, 348, 361, 27, 26}, []string{"Delivered", "Cancelled", "RTO", "Fulfillment Pending", "Misc"}, PieOpts{
		Title:       "Order Status",
		ShowLegend:  true,
		ValueLabels: []string{"53.0%", "21.5%", "22.3%", "1.7%", "1.6%"},
	})
	if err != nil {
		t.Fatalf("pie renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if strings.Count(output, "<path") != 5 {
		t.Fatalf("expected five wedges, got %s", output)
	}
	if !strings.Contains(output, "Delivered: 53.0%") {
		t.Fatalf("expected legend entry")
	}
	if !strings.Contains(output, "order-status-pie-title") {
		t.Fatalf("expected title id")
	}
}

func TestPieSingleSliceIsCircle(t *testing.T) {
	html, err := Pie(240, 240, []float64{0, 5, 0}, []string{"A", "B", "C"}, PieOpts{})
	if err != nil {
		t.Fatalf("pie renderer error: %v", err)
	}
	output := string(html)
	if strings.Contains(output, "<path") {
		t.Fatalf("expected no wedges for a single slice")
	}
	if strings.Count(output, "<circle") != 1 {
		t.Fatalf("expected a full circle")
	}
}

func TestPieEmpty(t *testing.T) {
	html, err := Pie(240, 240, []float64{0, 0}, []string{"A", "B"}, PieOpts{EmptyLabel: "No orders"})
	if err != nil {
		t.Fatalf("pie renderer error: %v", err)
	}
	if !strings.Contains(string(html), "No orders") {
		t.Fatalf("expected empty label")
	}
}

func TestPieRejectsNegative(t *testing.T) {
	if _, err := Pie(240, 240, []float64{-1}, []string{"A"}, PieOpts{}); err == nil {
		t.Fatalf("expected negative value to fail")
	}
	if _, err := Pie(240, 240, []float64{1}, nil, PieOpts{}); err == nil {
		t.Fatalf("expected label mismatch to fail")
	}
}

func TestArcPathUsesLargeArcFlag(t *testing.T) {
	if got := arcPath(0, 0, 10, 0, 4); !strings.Contains(got, " 0 1 1 ") {
		t.Fatalf("expected large arc flag, got %s", got)
	}
	if got := arcPath(0, 0, 10, 0, 1); !strings.Contains(got, " 0 0 1 ") {
		t.Fatalf("expected small arc flag, got %s", got)
	}
}
