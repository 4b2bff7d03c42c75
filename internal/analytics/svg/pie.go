package svg

import (
	"bytes"
	"fmt"
	"html/template"
	"math"

	svgo "github.com/ajstarks/svgo"
)

// Pie renders a pie chart with one slice per label. Zero values are kept in
// the legend but draw no slice.
func Pie(width, height int, values []float64, labels []string, opts PieOpts) (template.HTML, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("svg: values required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match values")
	}
	if len(opts.ValueLabels) > 0 && len(opts.ValueLabels) != len(values) {
		return "", fmt.Errorf("svg: value labels length must match values")
	}
	total := 0.0
	for _, v := range values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("svg: pie values must be finite and non-negative")
		}
		total += v
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	labelColor := fallback(opts.LabelColor, "#475569")

	legendWidth := 0
	if opts.ShowLegend {
		legendWidth = width / 3
	}
	radius := (min(width-legendWidth, height) / 2) - int(DefaultPadding)
	if radius <= 0 {
		return "", fmt.Errorf("svg: viewport too small")
	}
	cx := (width - legendWidth) / 2
	cy := height / 2

	titleID := makeID(opts.Title, "pie-title")
	descID := makeID(opts.Title, "pie-desc")

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID)
	fmt.Fprintf(&buf, "<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Pie chart")))
	fmt.Fprintf(&buf, "<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Share of total")))
	canvas := svgo.New(&buf)

	if total <= 0 {
		canvas.Circle(cx, cy, radius, `fill="none"`, `stroke="#cbd5f5"`, `stroke-width="2"`)
		canvas.Text(cx, cy+4, fallback(opts.EmptyLabel, "No data"), fmt.Sprintf("fill=%q", labelColor), `font-size="12"`, `text-anchor="middle"`)
	} else {
		start := -math.Pi / 2
		for i, v := range values {
			if v <= 0 {
				continue
			}
			color := colorAt(opts.Colors, i)
			label := labels[i]
			if almostEqual(v, total) {
				canvas.Circle(cx, cy, radius, fmt.Sprintf("fill=%q", color), fmt.Sprintf("aria-label=\"%s\"", template.HTMLEscapeString(label)))
				break
			}
			sweep := 2 * math.Pi * v / total
			canvas.Path(arcPath(float64(cx), float64(cy), float64(radius), start, start+sweep),
				fmt.Sprintf("fill=%q", color), `stroke="#ffffff"`, `stroke-width="1"`, fmt.Sprintf("aria-label=\"%s\"", template.HTMLEscapeString(label)))
			start += sweep
		}
	}

	if opts.ShowLegend {
		x := width - legendWidth + 8
		rowHeight := 18
		y := cy - (len(labels)*rowHeight)/2
		for i, label := range labels {
			rowY := y + i*rowHeight
			canvas.Rect(x, rowY, 10, 10, fmt.Sprintf("fill=%q", colorAt(opts.Colors, i)))
			text := label
			if valueLabel := labelAt(opts.ValueLabels, i); valueLabel != "" {
				text = label + ": " + valueLabel
			}
			canvas.Text(x+16, rowY+9, text, fmt.Sprintf("fill=%q", labelColor), `font-size="10"`, `text-anchor="start"`)
		}
	}

	buf.WriteString("</svg>")
	return template.HTML(buf.String()), nil
}

// arcPath draws a wedge from angle a0 to a1, measured clockwise from the x axis.
func arcPath(cx, cy, r, a0, a1 float64) string {
	x0 := cx + r*math.Cos(a0)
	y0 := cy + r*math.Sin(a0)
	x1 := cx + r*math.Cos(a1)
	y1 := cy + r*math.Sin(a1)
	large := 0
	if a1-a0 > math.Pi {
		large = 1
	}
	return fmt.Sprintf("M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z", cx, cy, x0, y0, r, r, large, x1, y1)
}
