package pipeline

import (
	"go-revenue-report/internal/model"
	"go-revenue-report/internal/relation"
)

// FilterEmployees keeps employees of the given type and projects them to
// {employeeId, employeeName, departmentId}.
func FilterEmployees(employees *relation.Relation, employeeType string) (*relation.Relation, error) {
	if err := employees.Require(EmployeeSchema.Required...); err != nil {
		return nil, err
	}
	filtered, err := employees.Where(model.ColEmployeeType, relation.String(employeeType))
	if err != nil {
		return nil, err
	}
	return filtered.Select(model.ColEmployeeID, model.ColEmployeeName, model.ColDepartmentID)
}

// FilterTransactions keeps transactions of the given type and projects them
// to {employeeId, transactionAmount}.
func FilterTransactions(transactions *relation.Relation, transactionType string) (*relation.Relation, error) {
	if err := transactions.Require(TransactionSchema.Required...); err != nil {
		return nil, err
	}
	filtered, err := transactions.Where(model.ColTransactionType, relation.String(transactionType))
	if err != nil {
		return nil, err
	}
	return filtered.Select(model.ColEmployeeID, model.ColTransactionAmount)
}
