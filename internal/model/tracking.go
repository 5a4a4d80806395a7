package model

import "time"

// Stage names, in execution order.
const (
	StageIngestion      = "ingestion"
	StageFilter         = "filter"
	StagePartition      = "partition"
	StageEmployeeJoin   = "employee_join"
	StageBroadcastJoin  = "broadcast_join"
	StageDepartmentAgg  = "department_aggregate"
	StageReconciliation = "reconciliation"
	StageExport         = "export"
)

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// StageMetrics represents metrics for a specific pipeline stage
type StageMetrics struct {
	StageName   string        `json:"stage_name"`
	Status      string        `json:"status"` // "running", "completed", "failed"
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Duration    time.Duration `json:"duration"`
	RowsIn      int64         `json:"rows_in"`
	RowsOut     int64         `json:"rows_out"`
	Partitions  int           `json:"partitions,omitempty"`
	WorkerCount int           `json:"worker_count,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// RunMetrics represents overall pipeline performance metrics
type RunMetrics struct {
	JobID          string         `json:"job_id"`
	StartTime      time.Time      `json:"start_time"`
	EndTime        time.Time      `json:"end_time"`
	ProcessingTime time.Duration  `json:"processing_time"`
	Status         string         `json:"status"`
	Stages         []StageMetrics `json:"stages"`
}

// Stage returns the metrics of the named stage.
func (m RunMetrics) Stage(name string) (StageMetrics, bool) {
	for _, s := range m.Stages {
		if s.StageName == name {
			return s, true
		}
	}
	return StageMetrics{}, false
}
