package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportWarmup rebuilds period reports so the first dashboard hit is served from cache.
	TaskReportWarmup = "analytics:report_warmup"
)

// ReportWarmupPayload names the periods to warm. An empty list warms every
// period the dataset source knows about.
type ReportWarmupPayload struct {
	Periods []string `json:"periods,omitempty"`
}

// NewReportWarmupTask constructs an Asynq task for the report warmup job.
func NewReportWarmupTask(payload ReportWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReportWarmup, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
