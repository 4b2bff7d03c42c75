package svg

import (
	"strings"
	"testing"
)

func TestBarsProducesSVG(t *testing.T) {
	html, err := Bars(420, 220, []float64{387000, 321482, 92000}, []string{"Manufacturing", "Marketing", "Shipping"}, BarOpts{
		Title:       "Cost Breakdown",
		Description: "Period costs by category",
		Colors:      []string{"#0ea5e9", "#6366f1", "#f97316"},
		ValueLabels: []string{"$387,000", "$321,482", "$92,000"},
	})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	output := string(html)
	if !strings.HasPrefix(output, "<svg") {
		t.Fatalf("expected svg output, got %s", output)
	}
	if strings.Count(output, "<rect") != 3 {
		t.Fatalf("expected one bar per category")
	}
	if !strings.Contains(output, "fill=\"#6366f1\" aria-label=\"Marketing\"") {
		t.Fatalf("expected per bar colour")
	}
	if !strings.Contains(output, ">$321,482</text>") {
		t.Fatalf("expected value label")
	}
}

func TestBarsAllZero(t *testing.T) {
	html, err := Bars(0, 0, []float64{0, 0, 0}, []string{"A", "B", "C"}, BarOpts{})
	if err != nil {
		t.Fatalf("bars renderer error: %v", err)
	}
	if !strings.Contains(string(html), "height=\"0.00\"") {
		t.Fatalf("expected zero height bars")
	}
}

func TestBarsValidatesInput(t *testing.T) {
	if _, err := Bars(420, 220, nil, nil, BarOpts{}); err == nil {
		t.Fatalf("expected empty series to fail")
	}
	if _, err := Bars(420, 220, []float64{1}, []string{"a", "b"}, BarOpts{}); err == nil {
		t.Fatalf("expected label mismatch to fail")
	}
}
