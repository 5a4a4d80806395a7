package pipeline

import (
	"context"

	"go-revenue-report/internal/model"
	"go-revenue-report/internal/relation"
	"go-revenue-report/internal/session"
)

// ------------------- Employee level -------------------

// AggregateEmployeeRevenue inner-joins employees to transactions on
// employeeId and sums transactionAmount per (employeeId, employeeName,
// departmentId) into totalRevenue.
func AggregateEmployeeRevenue(ctx context.Context, employees, transactions *relation.Relation, partitions, workers int) (*relation.Relation, error) {
	empParts, txnParts, err := PartitionInputs(employees, transactions, partitions)
	if err != nil {
		return nil, err
	}
	return JoinAggregate(ctx, empParts, txnParts, workers)
}

// PartitionInputs splits the filtered employees and transactions on
// employeeId into n co-located partitions each.
func PartitionInputs(employees, transactions *relation.Relation, n int) (empParts, txnParts []*relation.Relation, err error) {
	if err := employees.Require(model.ColEmployeeID, model.ColEmployeeName, model.ColDepartmentID); err != nil {
		return nil, nil, err
	}
	if err := transactions.Require(model.ColEmployeeID, model.ColTransactionAmount); err != nil {
		return nil, nil, err
	}
	if empParts, err = employees.Partition(model.ColEmployeeID, n); err != nil {
		return nil, nil, err
	}
	if txnParts, err = transactions.Partition(model.ColEmployeeID, n); err != nil {
		return nil, nil, err
	}
	return empParts, txnParts, nil
}

// JoinAggregate joins and aggregates each pair of co-located partitions on its
// own. An employee's rows never span two partitions, so the union of the
// partition results is the full answer.
func JoinAggregate(ctx context.Context, empParts, txnParts []*relation.Relation, workers int) (*relation.Relation, error) {
	out, err := relation.ZipPartitions(ctx, empParts, txnParts, workers, func(_ context.Context, emps, txns *relation.Relation) (*relation.Relation, error) {
		joined, err := emps.Join(txns, model.ColEmployeeID, relation.InnerJoin)
		if err != nil {
			return nil, err
		}
		return joined.GroupBy(
			[]string{model.ColEmployeeID, model.ColEmployeeName, model.ColDepartmentID},
			relation.Sum(model.ColTransactionAmount).As(model.ColTotalRevenue),
		)
	})
	if err != nil {
		return nil, err
	}
	return out.Named(model.RelEmployeeRevenue), nil
}

// ------------------- Department dimension -------------------

// AttachDepartments left-outer-joins employee revenue with the department
// dimension and keeps {employeeId, employeeName, departmentId, totalRevenue}.
// The department index is built once per run and probed from every
// partition; rows whose department is unknown are kept.
func AttachDepartments(ctx context.Context, sess *session.Session, employeeRevenue, departments *relation.Relation, partitions, workers int) (*relation.Relation, error) {
	if err := employeeRevenue.Require(model.ColEmployeeID, model.ColEmployeeName, model.ColDepartmentID, model.ColTotalRevenue); err != nil {
		return nil, err
	}
	idx, err := sess.Broadcast(departments, model.ColDepartmentID)
	if err != nil {
		return nil, err
	}
	parts, err := employeeRevenue.Partition(model.ColEmployeeID, partitions)
	if err != nil {
		return nil, err
	}
	out, err := relation.MapPartitions(ctx, parts, workers, func(_ context.Context, part *relation.Relation) (*relation.Relation, error) {
		joined, err := part.JoinIndex(idx, relation.LeftOuterJoin)
		if err != nil {
			return nil, err
		}
		return joined.Select(model.ColEmployeeID, model.ColEmployeeName, model.ColDepartmentID, model.ColTotalRevenue)
	})
	if err != nil {
		return nil, err
	}
	return out.Named(model.RelEmployeeRevenue), nil
}

// ------------------- Department level -------------------

// AggregateDepartmentRevenue averages totalRevenue per departmentId into
// avgRevenue, over exactly the employee revenue rows of each department.
func AggregateDepartmentRevenue(ctx context.Context, employeeRevenue *relation.Relation, partitions, workers int) (*relation.Relation, error) {
	parts, err := employeeRevenue.Partition(model.ColDepartmentID, partitions)
	if err != nil {
		return nil, err
	}
	out, err := relation.MapPartitions(ctx, parts, workers, func(_ context.Context, part *relation.Relation) (*relation.Relation, error) {
		return part.GroupBy(
			[]string{model.ColDepartmentID},
			relation.Mean(model.ColTotalRevenue).As(model.ColAvgRevenue),
		)
	})
	if err != nil {
		return nil, err
	}
	return out.Named(model.RelDepartmentRevenue), nil
}
