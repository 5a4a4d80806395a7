package pipeline

import (
	"github.com/shopspring/decimal"

	"go-revenue-report/internal/model"
	"go-revenue-report/internal/relation"
)

// EmployeeRevenueRecords converts an employee revenue relation into typed
// records. Null identifiers become empty strings and a null total (only
// possible when every qualifying amount was empty) becomes zero.
func EmployeeRevenueRecords(rel *relation.Relation) ([]model.EmployeeRevenue, error) {
	if err := rel.Require(model.ColEmployeeID, model.ColEmployeeName, model.ColDepartmentID, model.ColTotalRevenue); err != nil {
		return nil, err
	}
	out := make([]model.EmployeeRevenue, 0, rel.Len())
	for _, t := range rel.Tuples() {
		total, _ := t.Get(model.ColTotalRevenue).Num()
		out = append(out, model.EmployeeRevenue{
			EmployeeID:   str(t.Get(model.ColEmployeeID)),
			EmployeeName: str(t.Get(model.ColEmployeeName)),
			DepartmentID: str(t.Get(model.ColDepartmentID)),
			TotalRevenue: total,
		})
	}
	return out, nil
}

// ReportLines converts the final report relation into typed lines. Null
// employee fields stay absent; every column beyond the report columns is
// copied into Attributes.
func ReportLines(rel *relation.Relation) ([]model.DepartmentRevenue, error) {
	if err := rel.Require(reportColumns...); err != nil {
		return nil, err
	}
	var attrs []string
	for _, c := range rel.Columns() {
		if !isReportColumn(c) {
			attrs = append(attrs, c)
		}
	}

	out := make([]model.DepartmentRevenue, 0, rel.Len())
	for _, t := range rel.Tuples() {
		line := model.DepartmentRevenue{
			DepartmentID: str(t.Get(model.ColDepartmentID)),
			EmployeeID:   optStr(t.Get(model.ColEmployeeID)),
			EmployeeName: optStr(t.Get(model.ColEmployeeName)),
		}
		if d, ok := t.Get(model.ColTotalRevenue).Num(); ok {
			line.TotalRevenue = decimal.NewNullDecimal(d)
		}
		line.AvgRevenue, _ = t.Get(model.ColAvgRevenue).Num()
		for _, c := range attrs {
			v := t.Get(c)
			if v.IsNull() {
				continue
			}
			if line.Attributes == nil {
				line.Attributes = make(map[string]string, len(attrs))
			}
			line.Attributes[c] = v.String()
		}
		out = append(out, line)
	}
	return out, nil
}

func isReportColumn(c string) bool {
	for _, rc := range reportColumns {
		if rc == c {
			return true
		}
	}
	return false
}

func str(v relation.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}

func optStr(v relation.Value) *string {
	if v.IsNull() {
		return nil
	}
	s := v.String()
	return &s
}
