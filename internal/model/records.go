package model

import (
	"github.com/shopspring/decimal"
)

// Column names of the input and output relations.
const (
	ColEmployeeID        = "employeeId"
	ColEmployeeName      = "employeeName"
	ColEmployeeType      = "employeeType"
	ColDepartmentID      = "departmentId"
	ColTransactionAmount = "transactionAmount"
	ColTransactionType   = "transactionType"
	ColTotalRevenue      = "totalRevenue"
	ColAvgRevenue        = "avgRevenue"
)

// Relation names used in errors and logs.
const (
	RelEmployees         = "employees"
	RelTransactions      = "transactions"
	RelDepartments       = "departments"
	RelEmployeeRevenue   = "employeeRevenue"
	RelDepartmentRevenue = "departmentRevenue"
)

// EmployeeRevenue is the total of one employee's qualifying transactions.
type EmployeeRevenue struct {
	EmployeeID   string          `json:"employeeId"`
	EmployeeName string          `json:"employeeName"`
	DepartmentID string          `json:"departmentId"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// DepartmentRevenue is one line of the final report. A department without
// revenue-bearing employees has a single line with EmployeeID, EmployeeName
// and TotalRevenue absent and AvgRevenue zero.
type DepartmentRevenue struct {
	DepartmentID string              `json:"departmentId"`
	EmployeeID   *string             `json:"employeeId"`
	EmployeeName *string             `json:"employeeName"`
	TotalRevenue decimal.NullDecimal `json:"totalRevenue"`
	AvgRevenue   decimal.Decimal     `json:"avgRevenue"`
	Attributes   map[string]string   `json:"attributes,omitempty"`
}

// HasEmployee reports whether the line belongs to a revenue-bearing employee.
func (d DepartmentRevenue) HasEmployee() bool { return d.EmployeeID != nil }
