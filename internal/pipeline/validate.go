package pipeline

import (
	"go-revenue-report/internal/model"
	"go-revenue-report/internal/relation"
)

// Schema declares what a source must provide. Columns not listed are loaded
// as strings and carried along.
type Schema struct {
	Required []string // columns that must be present
	Numeric  []string // columns parsed as decimals
}

// Input schemas of the report.
var (
	EmployeeSchema = Schema{
		Required: []string{model.ColEmployeeID, model.ColEmployeeName, model.ColEmployeeType, model.ColDepartmentID},
	}
	TransactionSchema = Schema{
		Required: []string{model.ColEmployeeID, model.ColTransactionAmount, model.ColTransactionType},
		Numeric:  []string{model.ColTransactionAmount},
	}
	DepartmentSchema = Schema{
		Required: []string{model.ColDepartmentID},
	}
)

func (s Schema) isNumeric(col string) bool {
	for _, c := range s.Numeric {
		if c == col {
			return true
		}
	}
	return false
}

// validateHeader checks that every required column is present.
func (s Schema) validateHeader(relName string, header []string) error {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if h == "" {
			return &relation.SchemaError{Relation: relName, Reason: "empty column name in header"}
		}
		seen[h] = true
	}
	for _, field := range s.Required {
		if !seen[field] {
			return &relation.SchemaError{Relation: relName, Column: field, Reason: "missing required column"}
		}
	}
	for _, field := range s.Numeric {
		if !seen[field] {
			return &relation.SchemaError{Relation: relName, Column: field, Reason: "missing numeric column"}
		}
	}
	return nil
}

// Validate checks an already built relation against the schema: required
// columns present and numeric columns holding only decimals or nulls.
func (s Schema) Validate(rel *relation.Relation) error {
	if err := rel.Require(s.Required...); err != nil {
		return err
	}
	if err := rel.Require(s.Numeric...); err != nil {
		return err
	}
	for n, tup := range rel.Tuples() {
		for _, field := range s.Numeric {
			v := tup.Get(field)
			if v.IsNull() {
				continue
			}
			if _, ok := v.Num(); !ok {
				return &relation.TypeError{Relation: rel.Name(), Column: field, Row: n + 1, Value: v.String()}
			}
		}
	}
	return nil
}
