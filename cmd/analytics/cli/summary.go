package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/webcanteen/webcanteen-analytics/internal/analytics"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/export"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/format"
	"github.com/webcanteen/webcanteen-analytics/internal/analytics/ui"
	"github.com/webcanteen/webcanteen-analytics/internal/ingest"
)

// Exit codes returned by SummaryCommand.
const (
	ExitOK             = 0
	ExitUsage          = 1
	ExitInvalidDataset = 2
)

// SummaryOptions defines available flags for the summary command.
type SummaryOptions struct {
	Path     string
	Output   string
	Currency string
	Locale   string
	Stdout   io.Writer
	Stderr   io.Writer
	Now      func() time.Time
}

// SummaryCommand loads a dataset file, aggregates it and prints the report.
func SummaryCommand(opts SummaryOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if strings.TrimSpace(opts.Path) == "" {
		_, _ = fmt.Fprintln(opts.Stderr, "summary: --file is required")
		return ExitUsage
	}
	formatter, err := format.New(opts.Currency, opts.Locale)
	if err != nil {
		_, _ = fmt.Fprintf(opts.Stderr, "summary: %v\n", err)
		return ExitUsage
	}

	dataset, err := ingest.LoadFile(opts.Path)
	if err != nil {
		var vErr *ingest.ValidationError
		if errors.As(err, &vErr) {
			_, _ = fmt.Fprintf(opts.Stderr, "summary: %d invalid field(s) in %s:\n", len(vErr.Fields), opts.Path)
			for _, field := range vErr.Fields {
				_, _ = fmt.Fprintf(opts.Stderr, " - %s failed %s\n", field.Field, field.Rule)
			}
			return ExitInvalidDataset
		}
		if errors.Is(err, ingest.ErrInvalidDataset) {
			_, _ = fmt.Fprintf(opts.Stderr, "summary: %v\n", err)
			return ExitInvalidDataset
		}
		_, _ = fmt.Fprintf(opts.Stderr, "summary: %v\n", err)
		return ExitUsage
	}

	report := analytics.BuildReport(dataset, opts.Now().UTC())
	switch strings.ToLower(strings.TrimSpace(opts.Output)) {
	case "", "text":
		renderSummaryHuman(opts.Stdout, ui.NewDashboardViewModel(report, formatter))
	case "json":
		enc := json.NewEncoder(opts.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "summary: encode json: %v\n", err)
			return ExitUsage
		}
	case "csv":
		if err := export.WriteReportCSV(opts.Stdout, report); err != nil {
			_, _ = fmt.Fprintf(opts.Stderr, "summary: write csv: %v\n", err)
			return ExitUsage
		}
	default:
		_, _ = fmt.Fprintf(opts.Stderr, "summary: unknown output %q (expected text, json or csv)\n", opts.Output)
		return ExitUsage
	}
	return ExitOK
}

func renderSummaryHuman(out io.Writer, vm ui.DashboardViewModel) {
	period := vm.Period
	if period == "" {
		period = "ad-hoc"
	}
	_, _ = fmt.Fprintf(out, "Order analytics for %s (%s)\n", period, vm.Currency)
	for _, card := range vm.Cards {
		_, _ = fmt.Fprintf(out, "  %-12s %14s  %s\n", card.Title, card.Value, card.Subtitle)
	}
	for _, section := range vm.Sections {
		_, _ = fmt.Fprintf(out, "\n%s\n", section.Title)
		for _, metric := range section.Metrics {
			_, _ = fmt.Fprintf(out, "  %-26s %s\n", metric.Label, metric.Value)
		}
	}
	_, _ = fmt.Fprintln(out, "\nOrder status")
	for _, row := range vm.Status {
		_, _ = fmt.Fprintf(out, "  %-22s %8s  %s\n", row.Label, row.Count, row.Share)
	}
	_, _ = fmt.Fprintln(out, "\nOrder funnel")
	for _, row := range vm.Funnel {
		_, _ = fmt.Fprintf(out, "  %-22s %8s\n", row.Label, row.Count)
	}
}
