package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-revenue-report/internal/model"
)

// Recorder persists job progress. *store.Store implements it.
type Recorder interface {
	UpdateJobStatus(jobID string, status string) error
	SaveJobError(jobID string, err error) error
	SaveStageProgress(jobID, stage, status string, startedAt, endedAt *time.Time, rowsIn, rowsOut int64) error
	SavePipelineLog(jobID, stage, level, message string, fields map[string]interface{}) error
}

// Tracker keeps per-stage metrics of one run in memory and mirrors them to a
// Recorder when one is set. Recorder failures are logged, never returned: a
// report does not fail because its bookkeeping did.
type Tracker struct {
	jobID  string
	logger *zap.Logger
	rec    Recorder

	mu      sync.RWMutex
	metrics model.RunMetrics
}

// NewTracker starts tracking a run. rec may be nil.
func NewTracker(jobID string, logger *zap.Logger, rec Recorder) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		jobID:  jobID,
		logger: logger.With(zap.String("job_id", jobID)),
		rec:    rec,
		metrics: model.RunMetrics{
			JobID:     jobID,
			StartTime: time.Now(),
			Status:    model.StatusRunning,
		},
	}
}

// StartStage marks the start of a pipeline stage
func (t *Tracker) StartStage(stage string, rowsIn int64, partitions, workers int) {
	now := time.Now()
	t.mu.Lock()
	t.metrics.Stages = append(t.metrics.Stages, model.StageMetrics{
		StageName:   stage,
		Status:      model.StatusRunning,
		StartTime:   now,
		RowsIn:      rowsIn,
		Partitions:  partitions,
		WorkerCount: workers,
	})
	t.mu.Unlock()

	t.logger.Info("stage started",
		zap.String("stage", stage),
		zap.Int64("rows_in", rowsIn),
		zap.Int("partitions", partitions),
		zap.Int("workers", workers),
	)
	t.persist(stage, model.StatusRunning, &now, nil, rowsIn, 0)
	t.log(stage, "info", "stage started", map[string]interface{}{
		"rows_in":    rowsIn,
		"partitions": partitions,
		"workers":    workers,
	})
}

// EndStage marks the end of a pipeline stage
func (t *Tracker) EndStage(stage string, rowsOut int64) {
	sm, ok := t.finish(stage, model.StatusCompleted, rowsOut, "")
	if !ok {
		return
	}
	t.logger.Info("stage completed",
		zap.String("stage", stage),
		zap.Int64("rows_in", sm.RowsIn),
		zap.Int64("rows_out", rowsOut),
		zap.Int64("duration_ms", sm.Duration.Milliseconds()),
	)
	t.persist(stage, model.StatusCompleted, &sm.StartTime, &sm.EndTime, sm.RowsIn, rowsOut)
	t.log(stage, "info", "stage completed", map[string]interface{}{
		"rows_in":     sm.RowsIn,
		"rows_out":    rowsOut,
		"duration_ms": sm.Duration.Milliseconds(),
	})
}

// FailStage marks a stage as failed with err.
func (t *Tracker) FailStage(stage string, err error) {
	sm, ok := t.finish(stage, model.StatusFailed, 0, err.Error())
	if !ok {
		return
	}
	t.logger.Error("stage failed",
		zap.String("stage", stage),
		zap.Int64("duration_ms", sm.Duration.Milliseconds()),
		zap.Error(err),
	)
	t.persist(stage, model.StatusFailed, &sm.StartTime, &sm.EndTime, sm.RowsIn, 0)
	t.log(stage, "error", "stage failed", map[string]interface{}{
		"error": err.Error(),
	})
}

// Stage runs fn as the named stage. fn returns the stage's output row count.
// A failure is wrapped as "stage(<name>): <cause>".
func (t *Tracker) Stage(ctx context.Context, stage string, rowsIn, partitions, workers int, fn func() (int, error)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("stage(%s): %w", stage, err)
	}
	t.StartStage(stage, int64(rowsIn), partitions, workers)
	rowsOut, err := fn()
	if err != nil {
		err = fmt.Errorf("stage(%s): %w", stage, err)
		t.FailStage(stage, err)
		return err
	}
	t.EndStage(stage, int64(rowsOut))
	return nil
}

// finish closes the most recent open entry of stage.
func (t *Tracker) finish(stage, status string, rowsOut int64, errMsg string) (model.StageMetrics, bool) {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.metrics.Stages) - 1; i >= 0; i-- {
		sm := &t.metrics.Stages[i]
		if sm.StageName != stage || sm.Status != model.StatusRunning {
			continue
		}
		sm.Status = status
		sm.EndTime = now
		sm.Duration = now.Sub(sm.StartTime)
		sm.RowsOut = rowsOut
		sm.Error = errMsg
		return *sm, true
	}
	return model.StageMetrics{}, false
}

// Complete marks the run as completed
func (t *Tracker) Complete() {
	d := t.close(model.StatusCompleted)
	t.logger.Info("report completed", zap.Duration("duration", d))
	if t.rec != nil {
		if err := t.rec.UpdateJobStatus(t.jobID, model.StatusCompleted); err != nil {
			t.logger.Warn("failed to update job status", zap.Error(err))
		}
	}
}

// Fail marks the run as failed and records err against the job.
func (t *Tracker) Fail(err error) {
	d := t.close(model.StatusFailed)
	t.logger.Error("report failed", zap.Duration("duration", d), zap.Error(err))
	if t.rec != nil {
		if e := t.rec.UpdateJobStatus(t.jobID, model.StatusFailed); e != nil {
			t.logger.Warn("failed to update job status", zap.Error(e))
		}
		if e := t.rec.SaveJobError(t.jobID, err); e != nil {
			t.logger.Warn("failed to save job error", zap.Error(e))
		}
	}
}

func (t *Tracker) close(status string) time.Duration {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics.EndTime = now
	t.metrics.Status = status
	t.metrics.ProcessingTime = now.Sub(t.metrics.StartTime)
	return t.metrics.ProcessingTime
}

// Metrics returns a snapshot of the run metrics.
func (t *Tracker) Metrics() model.RunMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m := t.metrics
	m.Stages = append([]model.StageMetrics(nil), t.metrics.Stages...)
	return m
}

func (t *Tracker) persist(stage, status string, startedAt, endedAt *time.Time, rowsIn, rowsOut int64) {
	if t.rec == nil {
		return
	}
	if err := t.rec.SaveStageProgress(t.jobID, stage, status, startedAt, endedAt, rowsIn, rowsOut); err != nil {
		t.logger.Warn("failed to save stage progress", zap.String("stage", stage), zap.Error(err))
	}
}

func (t *Tracker) log(stage, level, message string, fields map[string]interface{}) {
	if t.rec == nil {
		return
	}
	if err := t.rec.SavePipelineLog(t.jobID, stage, level, message, fields); err != nil {
		t.logger.Warn("failed to save pipeline log", zap.String("stage", stage), zap.Error(err))
	}
}
