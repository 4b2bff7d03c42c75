package perf

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	jobmetrics "github.com/webcanteen/webcanteen-analytics/internal/jobs"
	"github.com/webcanteen/webcanteen-analytics/jobs"
)

func TestReportWarmupThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(reg)

	periods := []string{"2024-07", "2024-08", "2024-09", "2024-10", "2024-11", "2024-12"}
	service := newCachedService(t, newMemorySource(periods...))
	job := jobs.NewReportWarmupJob(service, discardLogger(), metrics)

	for i := 0; i < 10; i++ {
		if err := job.Handle(context.Background(), asynq.NewTask(jobs.TaskReportWarmup, nil)); err != nil {
			t.Fatalf("warmup run %d: %v", i, err)
		}
	}

	// A period that disappeared from the source fails its run but not the others.
	missing, err := jobs.NewReportWarmupTask(jobs.ReportWarmupPayload{Periods: []string{"2024-06", "2024-12"}})
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := job.Handle(context.Background(), missing); err == nil {
		t.Fatal("expected missing period to fail the run")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	success := metricValue(t, families, "webcanteen_jobs_total", map[string]string{"job": jobs.TaskReportWarmup, "status": "success"})
	failure := metricValue(t, families, "webcanteen_jobs_total", map[string]string{"job": jobs.TaskReportWarmup, "status": "failure"})
	if success != 10 || failure != 1 {
		t.Fatalf("unexpected run counts success=%v failure=%v", success, failure)
	}
	built := metricValue(t, families, "webcanteen_job_periods_total", map[string]string{"job": jobs.TaskReportWarmup, "outcome": "built"})
	if built != float64(10*len(periods)+1) {
		t.Fatalf("unexpected built periods %v", built)
	}

	mean := histogramMean(t, families, "webcanteen_job_duration_seconds", map[string]string{"job": jobs.TaskReportWarmup})
	if mean > 2.0 {
		t.Fatalf("warmup duration above budget: %f", mean)
	}
}

func metricValue(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				if fam.GetType() == dto.MetricType_COUNTER {
					return metric.GetCounter().GetValue()
				}
				if fam.GetType() == dto.MetricType_GAUGE {
					return metric.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func histogramMean(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if hasLabels(metric, labels) {
				hist := metric.GetHistogram()
				if hist == nil || hist.GetSampleCount() == 0 {
					t.Fatalf("histogram %s missing samples", name)
				}
				return hist.GetSampleSum() / float64(hist.GetSampleCount())
			}
		}
	}
	t.Fatalf("histogram %s with labels %v not found", name, labels)
	return 0
}

func hasLabels(metric *dto.Metric, labels map[string]string) bool {
	for _, lp := range metric.GetLabel() {
		if val, ok := labels[lp.GetName()]; ok {
			if lp.GetValue() != val {
				return false
			}
		}
	}
	for key := range labels {
		found := false
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == key {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
