package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-revenue-report/internal/model"
	"go-revenue-report/internal/relation"
	"go-revenue-report/internal/session"
	"go-revenue-report/internal/store"
	"go-revenue-report/pkg/router"
)

func newTestServer(t *testing.T) (*router.Router, *session.Session) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	sess := session.New(zap.NewNop(), st, session.Options{Partitions: 2, OutputDir: t.TempDir()})
	t.Cleanup(func() { sess.Close() })

	h := NewReportHandler(sess)
	r := router.New()
	r.SetOutput(nil)
	r.POST(ReportsPath, h.CreateReport)
	r.GET(ReportsPath, h.ListReports)
	r.GET(ReportStagesPath, h.GetReportStages)
	r.GET(ReportLogsPath, h.GetReportLogs)
	r.GET(ReportPath, h.GetReport)
	return r, sess
}

func writeInputs(t *testing.T, employees string) model.Inputs {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	return model.Inputs{
		Employees:    write("employees.csv", employees),
		Transactions: write("transactions.csv", transactions),
		Departments:  write("departments.csv", "departmentId\nD1\nD2\n"),
	}
}

const (
	employees    = "employeeId,employeeName,employeeType,departmentId\nE1,Alice,Sales,D1\nE2,Bob,Sales,D1\n"
	transactions = "employeeId,transactionAmount,transactionType\nE1,100,Sale\nE1,50,Sale\nE2,300,Sale\n"
)

func request(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func TestCreateReport(t *testing.T) {
	r, _ := newTestServer(t)
	spec := model.ReportJobSpec{Inputs: writeInputs(t, employees)}

	rec := request(t, r, http.MethodPost, ReportsPath, spec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var res model.ReportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, model.StatusCompleted, res.Status)
	require.Len(t, res.Lines, 3)
	assert.Equal(t, "Alice", *res.Lines[0].EmployeeName)
	assert.Equal(t, "225", res.Lines[0].AvgRevenue.String())
	assert.Nil(t, res.Lines[2].EmployeeID)
	assert.True(t, res.Lines[2].AvgRevenue.IsZero())

	// the job is now visible through the read endpoints
	rec = request(t, r, http.MethodGet, ReportsPath+"/"+res.JobID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status ReportStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, res.JobID, status.ID)
	assert.Equal(t, model.StatusCompleted, status.Status)
	assert.Empty(t, status.Errors)

	rec = request(t, r, http.MethodGet, ReportsPath+"/"+res.JobID+"/stages", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stages struct {
		Stages []store.StageProgress `json:"stages"`
		Count  int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stages))
	assert.Equal(t, 7, stages.Count)
	assert.Equal(t, model.StageIngestion, stages.Stages[0].Stage)

	rec = request(t, r, http.MethodGet, ReportsPath+"/"+res.JobID+"/logs?limit=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs struct {
		Logs  []store.LogEntry `json:"logs"`
		Count int              `json:"count"`
		Limit int              `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	assert.Equal(t, 3, logs.Count)
	assert.Equal(t, 3, logs.Limit)
	assert.Equal(t, "stage started", logs.Logs[0].Message)

	rec = request(t, r, http.MethodGet, ReportsPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []store.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	assert.Len(t, jobs, 1)
}

func TestCreateReportRejectsBadRequests(t *testing.T) {
	r, sess := newTestServer(t)
	in := writeInputs(t, employees)

	tests := []struct {
		name string
		body interface{}
	}{
		{"not json", "{"},
		{"missing input", model.ReportJobSpec{Inputs: model.Inputs{Employees: in.Employees}}},
		{"negative partitions", model.ReportJobSpec{Inputs: in, Concurrency: model.ConcurrencyConfig{Partitions: -1}}},
		{"bad timeout", model.ReportJobSpec{Inputs: in, Concurrency: model.ConcurrencyConfig{JobTimeout: "soon"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := request(t, r, http.MethodPost, ReportsPath, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	jobs, err := sess.Store.ListJobs()
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestCreateReportFailures(t *testing.T) {
	r, sess := newTestServer(t)

	t.Run("schema", func(t *testing.T) {
		spec := model.ReportJobSpec{Inputs: writeInputs(t, "employeeId,employeeName,departmentId\nE1,Alice,D1\n")}
		rec := request(t, r, http.MethodPost, ReportsPath, spec)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Contains(t, body.Error, "employeeType")

		job, err := sess.Store.GetJob(body.JobID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusFailed, job.Status)

		rec = request(t, r, http.MethodGet, ReportsPath+"/"+body.JobID, nil)
		var status ReportStatus
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		require.Len(t, status.Errors, 1)
		assert.Contains(t, status.Errors[0], "stage(ingestion)")
	})

	t.Run("missing file", func(t *testing.T) {
		in := writeInputs(t, employees)
		in.Departments = filepath.Join(t.TempDir(), "missing.csv")
		rec := request(t, r, http.MethodPost, ReportsPath, model.ReportJobSpec{Inputs: in})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetReportNotFound(t *testing.T) {
	r, _ := newTestServer(t)
	for _, path := range []string{
		ReportsPath + "/nope",
		ReportsPath + "/nope/stages",
		ReportsPath + "/nope/logs",
	} {
		rec := request(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}

	rec := request(t, r, http.MethodGet, ReportsPath+"/", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReportsEmpty(t *testing.T) {
	r, _ := newTestServer(t)
	rec := request(t, r, http.MethodGet, ReportsPath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestRunStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("stage(ingestion): %w", os.ErrNotExist), http.StatusBadRequest},
		{fmt.Errorf("stage(filter): %w", &relation.SchemaError{Relation: "employees", Column: "x"}), http.StatusUnprocessableEntity},
		{&relation.TypeError{Relation: "transactions", Column: "transactionAmount", Value: "x"}, http.StatusUnprocessableEntity},
		{&relation.KeyError{Relation: "departments", Column: "departmentId", Value: relation.String("D1")}, http.StatusUnprocessableEntity},
		{fmt.Errorf("stage(partition): %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, runStatus(tt.err), tt.err.Error())
	}
}
