package model

import "time"

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "console", "csv", "json"
	Path        string    `json:"path"` // file path, empty for console
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// ReportResult is what a finished job returns to its caller. Lines are not
// stored anywhere.
type ReportResult struct {
	JobID           string              `json:"job_id"`
	Status          string              `json:"status"`
	EmployeeRevenue []EmployeeRevenue   `json:"employee_revenue"`
	Lines           []DepartmentRevenue `json:"lines"`
	Metrics         RunMetrics          `json:"metrics"`
	Exports         []ExportResult      `json:"exports,omitempty"`
}
