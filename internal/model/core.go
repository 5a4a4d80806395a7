package model

// Inputs names the three delimited files a report is computed from.
type Inputs struct {
	Employees    string `json:"employees" example:"data/employees.csv"`
	Transactions string `json:"transactions" example:"data/transactions.csv"`
	Departments  string `json:"departments" example:"data/departments.csv"`
}

// Filters are the type literals the filter stage keeps.
type Filters struct {
	EmployeeType    string `json:"employeeType,omitempty" example:"Sales"`
	TransactionType string `json:"transactionType,omitempty" example:"Sale"`
}

// Export defines export targets
type Export struct {
	File    string `json:"file,omitempty"` // e.g., report.csv or report.json
	Console bool   `json:"console"`        // render a table to stdout
}

// ConcurrencyConfig controls partitioning of the join and aggregate stages.
type ConcurrencyConfig struct {
	Partitions int    `json:"partitions"`
	Workers    int    `json:"workers"`
	JobTimeout string `json:"jobTimeout"` // e.g., "5m"
}

// ReportJobSpec is the body of POST /api/v1/reports and the unit of work the
// CLI submits.
type ReportJobSpec struct {
	Inputs      Inputs            `json:"inputs"`
	Filters     Filters           `json:"filters"`
	Export      *Export           `json:"export,omitempty"`
	Concurrency ConcurrencyConfig `json:"concurrency"`
}
