package svg

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	TickCount   int
	// ValueLabels, when set, are printed above each point.
	ValueLabels []string
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	// Colors are applied per bar and cycle when shorter than the series.
	Colors      []string
	AxisColor   string
	GridColor   string
	Padding     float64
	TickCount   int
	ValueLabels []string
}

// PieOpts customises the pie chart renderer.
type PieOpts struct {
	Title       string
	Description string
	Colors      []string
	LabelColor  string
	EmptyLabel  string
	ValueLabels []string
	ShowLegend  bool
}

// Defaults for the analytics charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 24.0
	DefaultTicks   = 6
)

var defaultPalette = []string{"#0ea5e9", "#ef4444", "#f97316", "#eab308", "#6366f1"}

func colorAt(colors []string, i int) string {
	if len(colors) == 0 {
		return defaultPalette[i%len(defaultPalette)]
	}
	return fallback(colors[i%len(colors)], defaultPalette[i%len(defaultPalette)])
}

func labelAt(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return ""
}
