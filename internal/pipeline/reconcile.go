package pipeline

import (
	"go.uber.org/zap"

	"go-revenue-report/internal/model"
	"go-revenue-report/internal/relation"
	"go-revenue-report/internal/session"
)

// reportColumns lead every report row; department attributes follow them.
var reportColumns = []string{
	model.ColDepartmentID,
	model.ColEmployeeID,
	model.ColEmployeeName,
	model.ColTotalRevenue,
	model.ColAvgRevenue,
}

// Reconcile builds the final report from the department aggregates, the
// employee revenue rows and the full department dimension:
//
//  1. aggregates LEFT OUTER JOIN employeeRevenue on departmentId, one row per
//     (department, revenue-bearing employee);
//  2. RIGHT OUTER JOIN with departments on departmentId: every department is
//     kept, and one with no revenue-bearing employee surfaces as a single row
//     with null employee fields and null avgRevenue;
//  3. null avgRevenue is filled with 0. Nothing else is filled.
//
// Rows whose departmentId is null or absent from departments do not survive
// step 2; their count is logged as a warning.
//
// The result is sorted by (departmentId, employeeId), nulls last.
func Reconcile(sess *session.Session, aggregates, employeeRevenue, departments *relation.Relation) (*relation.Relation, error) {
	if err := aggregates.Require(model.ColDepartmentID, model.ColAvgRevenue); err != nil {
		return nil, err
	}
	if err := employeeRevenue.Require(model.ColEmployeeID, model.ColEmployeeName, model.ColDepartmentID, model.ColTotalRevenue); err != nil {
		return nil, err
	}
	revenue, err := employeeRevenue.Select(model.ColEmployeeID, model.ColEmployeeName, model.ColDepartmentID, model.ColTotalRevenue)
	if err != nil {
		return nil, err
	}

	expanded, err := aggregates.Join(revenue, model.ColDepartmentID, relation.LeftOuterJoin)
	if err != nil {
		return nil, err
	}
	expanded, err = expanded.Select(reportColumns...)
	if err != nil {
		return nil, err
	}

	// Same cached index the broadcast join probed. Unmatched departments are
	// emitted once per join call, so this runs over the whole relation rather
	// than per partition.
	idx, err := sess.Broadcast(departments, model.ColDepartmentID)
	if err != nil {
		return nil, err
	}
	orphans := expanded.Filter(func(t relation.Tuple) bool {
		v := t.Get(model.ColDepartmentID)
		return v.IsNull() || len(idx.Lookup(v)) == 0
	})
	if n := orphans.Len(); n > 0 {
		sess.Logger.Warn("report rows dropped: department not found",
			zap.Int("rows", n),
			zap.Int("departments", departments.Len()),
		)
	}

	complete, err := expanded.JoinIndex(idx, relation.RightOuterJoin)
	if err != nil {
		return nil, err
	}

	filled, err := complete.FillNull(model.ColAvgRevenue, relation.Int(0))
	if err != nil {
		return nil, err
	}
	sorted, err := filled.Sort(model.ColDepartmentID, model.ColEmployeeID)
	if err != nil {
		return nil, err
	}
	return sorted.Named(model.RelDepartmentRevenue), nil
}
