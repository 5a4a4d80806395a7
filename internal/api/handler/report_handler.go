package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"go-revenue-report/internal/model"
	"go-revenue-report/internal/pipeline"
	"go-revenue-report/internal/relation"
	"go-revenue-report/internal/session"
	"go-revenue-report/internal/store"
	"go-revenue-report/pkg/router"
)

// Route patterns served by ReportHandler.
const (
	ReportsPath      = "/api/v1/reports"
	ReportPath       = "/api/v1/reports/*"
	ReportStagesPath = "/api/v1/reports/*/stages"
	ReportLogsPath   = "/api/v1/reports/*/logs"
)

const defaultLogLimit = 100

// ReportHandler serves report jobs of one session. The session must have a
// job store.
type ReportHandler struct {
	sess *session.Session
}

func NewReportHandler(sess *session.Session) *ReportHandler {
	return &ReportHandler{sess: sess}
}

// ErrorResponse is the body of a failed report run.
type ErrorResponse struct {
	JobID string `json:"job_id,omitempty"`
	Error string `json:"error"`
}

// ReportStatus is a stored job with the errors it recorded.
type ReportStatus struct {
	store.Job
	Errors []string `json:"errors"`
}

// CreateReport runs a report job and returns its result
// @Summary Run a report
// @Description Load the three input files, compute the department revenue report and return it. Only job metadata is stored.
// @Tags reports
// @Accept json
// @Produce json
// @Param report body model.ReportJobSpec true "Report configuration"
// @Success 200 {object} model.ReportResult "Report computed"
// @Failure 400 {object} ErrorResponse "Invalid request payload or missing input"
// @Failure 422 {object} ErrorResponse "Input does not satisfy the expected schema"
// @Failure 504 {object} ErrorResponse "Job timed out"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /reports [post]
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	var spec model.ReportJobSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		http.Error(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	if msg := validateSpec(spec); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	jobID, err := pipeline.NewJob(h.sess, spec)
	if err != nil {
		h.sess.Logger.Error("failed to save job", zap.Error(err))
		http.Error(w, "Failed to save job", http.StatusInternalServerError)
		return
	}

	result, err := pipeline.Run(r.Context(), h.sess, jobID, spec, nil)
	if err != nil {
		writeJSON(w, runStatus(err), ErrorResponse{JobID: jobID, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ListReports retrieves all report jobs
// @Summary List reports
// @Description Get all report jobs with their current status, newest first
// @Tags reports
// @Produce json
// @Success 200 {array} store.Job "List of jobs"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /reports [get]
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.sess.Store.ListJobs()
	if err != nil {
		http.Error(w, "Failed to fetch reports", http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []store.Job{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// GetReport retrieves a report job
// @Summary Get report job
// @Description Retrieve the submitted configuration, status and recorded errors of a report job
// @Tags reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} ReportStatus "Job details"
// @Failure 400 {object} ErrorResponse "Invalid job ID"
// @Failure 404 {object} ErrorResponse "Job not found"
// @Router /reports/{id} [get]
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	job, ok := h.job(w, r, ReportPath)
	if !ok {
		return
	}
	errs, err := h.sess.Store.JobErrors(job.ID)
	if err != nil {
		http.Error(w, "Failed to retrieve errors", http.StatusInternalServerError)
		return
	}
	if errs == nil {
		errs = []string{}
	}
	writeJSON(w, http.StatusOK, ReportStatus{Job: job, Errors: errs})
}

// GetReportStages retrieves the stage progress of a report job
// @Summary Get report stages
// @Description Retrieve status and row counts of every stage a job started
// @Tags reports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} map[string]interface{} "Stage progress"
// @Failure 404 {object} ErrorResponse "Job not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /reports/{id}/stages [get]
func (h *ReportHandler) GetReportStages(w http.ResponseWriter, r *http.Request) {
	job, ok := h.job(w, r, ReportStagesPath)
	if !ok {
		return
	}
	stages, err := h.sess.Store.StageProgress(job.ID)
	if err != nil {
		http.Error(w, "Failed to retrieve stages", http.StatusInternalServerError)
		return
	}
	if stages == nil {
		stages = []store.StageProgress{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": job.ID,
		"stages": stages,
		"count":  len(stages),
	})
}

// GetReportLogs retrieves the pipeline logs of a report job
// @Summary Get report logs
// @Description Retrieve the stage log lines of a job, oldest first
// @Tags reports
// @Produce json
// @Param id path string true "Job ID"
// @Param limit query int false "Maximum number of lines" default(100)
// @Success 200 {object} map[string]interface{} "Pipeline logs"
// @Failure 404 {object} ErrorResponse "Job not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /reports/{id}/logs [get]
func (h *ReportHandler) GetReportLogs(w http.ResponseWriter, r *http.Request) {
	job, ok := h.job(w, r, ReportLogsPath)
	if !ok {
		return
	}

	limit := defaultLogLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	logs, err := h.sess.Store.PipelineLogs(job.ID)
	if err != nil {
		http.Error(w, "Failed to retrieve logs", http.StatusInternalServerError)
		return
	}
	if len(logs) > limit {
		logs = logs[:limit]
	}
	if logs == nil {
		logs = []store.LogEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id": job.ID,
		"logs":   logs,
		"count":  len(logs),
		"limit":  limit,
	})
}

// job loads the job named by the first wildcard of pattern, writing the
// error response itself when it cannot.
func (h *ReportHandler) job(w http.ResponseWriter, r *http.Request, pattern string) (store.Job, bool) {
	jobID := router.Param(r, pattern, 0)
	if jobID == "" {
		http.Error(w, "Job ID is required", http.StatusBadRequest)
		return store.Job{}, false
	}
	job, err := h.sess.Store.GetJob(jobID)
	if errors.Is(err, store.ErrJobNotFound) {
		http.Error(w, "Job not found", http.StatusNotFound)
		return store.Job{}, false
	}
	if err != nil {
		h.sess.Logger.Error("failed to load job", zap.String("job_id", jobID), zap.Error(err))
		http.Error(w, "Failed to load job", http.StatusInternalServerError)
		return store.Job{}, false
	}
	return job, true
}

func validateSpec(spec model.ReportJobSpec) string {
	switch {
	case spec.Inputs.Employees == "" || spec.Inputs.Transactions == "" || spec.Inputs.Departments == "":
		return "inputs.employees, inputs.transactions and inputs.departments are required"
	case spec.Concurrency.Partitions < 0 || spec.Concurrency.Workers < 0:
		return "concurrency settings must not be negative"
	}
	if d := spec.Concurrency.JobTimeout; d != "" {
		if _, err := time.ParseDuration(d); err != nil {
			return "invalid concurrency.jobTimeout"
		}
	}
	return ""
}

// runStatus maps a failed run to an HTTP status.
func runStatus(err error) int {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return http.StatusBadRequest
	case errors.Is(err, relation.ErrSchema), errors.Is(err, relation.ErrType), errors.Is(err, relation.ErrKey):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
