package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-revenue-report/internal/model"
	"go-revenue-report/internal/relation"
	"go-revenue-report/internal/session"
)

// ------------------- fixtures -------------------

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s := session.New(zap.NewNop(), nil, session.Options{})
	t.Cleanup(func() { s.Close() })
	return s
}

func cell(s string) relation.Value {
	if s == "" {
		return relation.Null()
	}
	return relation.String(s)
}

func amount(s string) relation.Value {
	if s == "" {
		return relation.Null()
	}
	return relation.Decimal(decimal.RequireFromString(s))
}

// emp is (employeeId, employeeName, employeeType, departmentId).
type emp [4]string

// txn is (employeeId, transactionAmount, transactionType).
type txn [3]string

func employees(rows ...emp) *relation.Relation {
	rs := make([]relation.Row, len(rows))
	for i, r := range rows {
		rs[i] = relation.Row{cell(r[0]), cell(r[1]), cell(r[2]), cell(r[3])}
	}
	return relation.MustNew(model.RelEmployees,
		[]string{model.ColEmployeeID, model.ColEmployeeName, model.ColEmployeeType, model.ColDepartmentID}, rs...)
}

func transactions(rows ...txn) *relation.Relation {
	rs := make([]relation.Row, len(rows))
	for i, r := range rows {
		rs[i] = relation.Row{cell(r[0]), amount(r[1]), cell(r[2])}
	}
	return relation.MustNew(model.RelTransactions,
		[]string{model.ColEmployeeID, model.ColTransactionAmount, model.ColTransactionType}, rs...)
}

func departments(ids ...string) *relation.Relation {
	rs := make([]relation.Row, len(ids))
	for i, id := range ids {
		rs[i] = relation.Row{cell(id)}
	}
	return relation.MustNew(model.RelDepartments, []string{model.ColDepartmentID}, rs...)
}

func run(t *testing.T, ds Dataset) ([]model.EmployeeRevenue, []model.DepartmentRevenue) {
	t.Helper()
	report, err := Process(context.Background(), newSession(t), ds, DefaultOptions())
	require.NoError(t, err)
	return typed(t, report)
}

func typed(t *testing.T, report *Report) ([]model.EmployeeRevenue, []model.DepartmentRevenue) {
	t.Helper()
	sorted, err := report.EmployeeRevenue.Sort(model.ColEmployeeID)
	require.NoError(t, err)
	revenue, err := EmployeeRevenueRecords(sorted)
	require.NoError(t, err)
	lines, err := ReportLines(report.DepartmentRevenue)
	require.NoError(t, err)
	return revenue, lines
}

// line is a compact (departmentId, employeeId, employeeName, totalRevenue,
// avgRevenue) rendering with "null" for absent fields.
func line(l model.DepartmentRevenue) string {
	opt := func(s *string) string {
		if s == nil {
			return "null"
		}
		return *s
	}
	total := "null"
	if l.TotalRevenue.Valid {
		total = l.TotalRevenue.Decimal.String()
	}
	return fmt.Sprintf("(%s,%s,%s,%s,%s)", l.DepartmentID, opt(l.EmployeeID), opt(l.EmployeeName), total, l.AvgRevenue.String())
}

func lineStrings(lines []model.DepartmentRevenue) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = line(l)
	}
	return out
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

// ------------------- scenarios -------------------

func TestScenarioSingleEmployee(t *testing.T) {
	revenue, lines := run(t, Dataset{
		Employees:    employees(emp{"E1", "Alice", "Sales", "D1"}),
		Transactions: transactions(txn{"E1", "100", "Sale"}, txn{"E1", "50", "Sale"}),
		Departments:  departments("D1"),
	})

	require.Len(t, revenue, 1)
	assert.Equal(t, "E1", revenue[0].EmployeeID)
	assert.Equal(t, "Alice", revenue[0].EmployeeName)
	assert.Equal(t, "D1", revenue[0].DepartmentID)
	assertDecimal(t, "150", revenue[0].TotalRevenue)

	assert.Equal(t, []string{"(D1,E1,Alice,150,150)"}, lineStrings(lines))
}

func TestScenarioWrongTransactionType(t *testing.T) {
	revenue, lines := run(t, Dataset{
		Employees:    employees(emp{"E1", "Alice", "Sales", "D1"}),
		Transactions: transactions(txn{"E1", "100", "Return"}),
		Departments:  departments("D1"),
	})

	assert.Empty(t, revenue)
	require.Len(t, lines, 1)
	assert.Equal(t, "(D1,null,null,null,0)", line(lines[0]))
	assert.False(t, lines[0].HasEmployee())
	assert.False(t, lines[0].TotalRevenue.Valid)
}

func TestScenarioDepartmentWithoutEmployees(t *testing.T) {
	_, lines := run(t, Dataset{
		Employees:    employees(emp{"E1", "Alice", "Sales", "D1"}),
		Transactions: transactions(txn{"E1", "100", "Sale"}, txn{"E1", "50", "Sale"}),
		Departments:  departments("D1", "D2"),
	})

	assert.Equal(t, []string{
		"(D1,E1,Alice,150,150)",
		"(D2,null,null,null,0)",
	}, lineStrings(lines))
}

func TestScenarioSharedDepartmentAverage(t *testing.T) {
	_, lines := run(t, Dataset{
		Employees: employees(
			emp{"E1", "Alice", "Sales", "D1"},
			emp{"E2", "Bob", "Sales", "D1"},
		),
		Transactions: transactions(
			txn{"E1", "100", "Sale"},
			txn{"E2", "120", "Sale"},
			txn{"E2", "180", "Sale"},
		),
		Departments: departments("D1"),
	})

	assert.Equal(t, []string{
		"(D1,E1,Alice,100,200)",
		"(D1,E2,Bob,300,200)",
	}, lineStrings(lines))
}

// ------------------- properties -------------------

func TestSumOnlyCountsQualifyingTransactions(t *testing.T) {
	revenue, _ := run(t, Dataset{
		Employees: employees(
			emp{"E1", "Alice", "Sales", "D1"},
			emp{"E2", "Bob", "Sales", "D1"},
		),
		Transactions: transactions(
			txn{"E1", "10.10", "Sale"},
			txn{"E1", "20.20", "Sale"},
			txn{"E1", "999", "Refund"},
			txn{"E2", "0.30", "Sale"},
			txn{"E3", "5", "Sale"},
			txn{"", "7", "Sale"},
		),
		Departments: departments("D1"),
	})

	require.Len(t, revenue, 2)
	assertDecimal(t, "30.30", revenue[0].TotalRevenue)
	assertDecimal(t, "0.30", revenue[1].TotalRevenue)
}

func TestExclusion(t *testing.T) {
	revenue, lines := run(t, Dataset{
		Employees: employees(
			emp{"E1", "Alice", "Sales", "D1"},
			emp{"E2", "Bob", "Engineering", "D1"},
			emp{"E3", "Carol", "Sales", "D1"},
		),
		Transactions: transactions(
			txn{"E1", "100", "Sale"},
			txn{"E2", "500", "Sale"},
		),
		Departments: departments("D1"),
	})

	require.Len(t, revenue, 1)
	assert.Equal(t, "E1", revenue[0].EmployeeID)
	assert.Equal(t, []string{"(D1,E1,Alice,100,100)"}, lineStrings(lines))
}

func TestMeanOverRevenueBearingEmployeesOnly(t *testing.T) {
	_, lines := run(t, Dataset{
		Employees: employees(
			emp{"E1", "Alice", "Sales", "D1"},
			emp{"E2", "Bob", "Sales", "D1"},
			emp{"E3", "Carol", "Sales", "D1"},
			emp{"E4", "Dan", "Sales", "D1"},
		),
		Transactions: transactions(
			txn{"E1", "1", "Sale"},
			txn{"E2", "1", "Sale"},
			txn{"E3", "2", "Sale"},
		),
		Departments: departments("D1"),
	})

	require.Len(t, lines, 3)
	for _, l := range lines {
		assertDecimal(t, "1.3333333333333333", l.AvgRevenue)
	}
}

func TestEveryDepartmentAppears(t *testing.T) {
	depts := []string{"D1", "D2", "D3", "D4"}
	_, lines := run(t, Dataset{
		Employees: employees(
			emp{"E1", "Alice", "Sales", "D1"},
			emp{"E2", "Bob", "Sales", "D3"},
			emp{"E3", "Carol", "Support", "D2"},
		),
		Transactions: transactions(
			txn{"E1", "10", "Sale"},
			txn{"E2", "20", "Sale"},
			txn{"E3", "30", "Sale"},
		),
		Departments: departments(depts...),
	})

	seen := map[string]int{}
	for _, l := range lines {
		seen[l.DepartmentID]++
	}
	for _, d := range depts {
		assert.Equal(t, 1, seen[d], "department %s", d)
	}
	assert.Equal(t, []string{
		"(D1,E1,Alice,10,10)",
		"(D2,null,null,null,0)",
		"(D3,E2,Bob,20,20)",
		"(D4,null,null,null,0)",
	}, lineStrings(lines))
}

func TestResultIndependentOfPartitioning(t *testing.T) {
	var emps []emp
	var txns []txn
	for i := 0; i < 60; i++ {
		id := fmt.Sprintf("E%02d", i)
		typ := "Sales"
		if i%7 == 0 {
			typ = "Marketing"
		}
		emps = append(emps, emp{id, "name-" + id, typ, fmt.Sprintf("D%d", i%5)})
		for j := 0; j < i%4; j++ {
			kind := "Sale"
			if j == 2 {
				kind = "Return"
			}
			txns = append(txns, txn{id, fmt.Sprintf("%d.%02d", i*j+1, j*13), kind})
		}
	}
	ds := Dataset{
		Employees:    employees(emps...),
		Transactions: transactions(txns...),
		Departments:  departments("D0", "D1", "D2", "D3", "D4", "D5"),
	}
	sess := newSession(t)

	var want []string
	var wantRevenue []model.EmployeeRevenue
	for _, n := range []int{1, 2, 3, 10, 17} {
		for _, w := range []int{0, 1, 4} {
			opts := DefaultOptions()
			opts.Partitions, opts.Workers = n, w
			report, err := Process(context.Background(), sess, ds, opts)
			require.NoError(t, err)
			revenue, lines := typed(t, report)
			got := lineStrings(lines)
			if want == nil {
				want, wantRevenue = got, revenue
				continue
			}
			assert.Equal(t, want, got, "partitions=%d workers=%d", n, w)
			assert.Equal(t, len(wantRevenue), len(revenue), "partitions=%d workers=%d", n, w)
			for i := range revenue {
				assert.Equal(t, wantRevenue[i].EmployeeID, revenue[i].EmployeeID)
				assert.True(t, wantRevenue[i].TotalRevenue.Equal(revenue[i].TotalRevenue))
			}
		}
	}
	assert.Contains(t, want, "(D5,null,null,null,0)")
}

func TestProcessReleasesDepartmentIndex(t *testing.T) {
	sess := newSession(t)
	for i := 0; i < 5; i++ {
		_, err := Process(context.Background(), sess, Dataset{
			Employees:    employees(emp{"E1", "Alice", "Sales", "D1"}),
			Transactions: transactions(txn{"E1", "10", "Sale"}),
			Departments:  departments("D1", "D2"),
		}, DefaultOptions())
		require.NoError(t, err)
		assert.Equal(t, 0, sess.Cached(), "run %d", i)
	}

	// a failing run releases too
	_, err := Process(context.Background(), sess, Dataset{
		Employees:    employees(emp{"E1", "Alice", "Sales", "D1"}),
		Transactions: transactions(txn{"E1", "10", "Sale"}),
		Departments:  departments("D1", "D1"),
	}, DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, 0, sess.Cached())
}

func TestFilterLiteralsAreConfigurable(t *testing.T) {
	opts := DefaultOptions()
	opts.EmployeeType, opts.TransactionType = "Support", "Refund"
	report, err := Process(context.Background(), newSession(t), Dataset{
		Employees: employees(
			emp{"E1", "Alice", "Sales", "D1"},
			emp{"E2", "Bob", "Support", "D1"},
		),
		Transactions: transactions(
			txn{"E1", "100", "Sale"},
			txn{"E2", "40", "Refund"},
		),
		Departments: departments("D1"),
	}, opts)
	require.NoError(t, err)
	_, lines := typed(t, report)
	assert.Equal(t, []string{"(D1,E2,Bob,40,40)"}, lineStrings(lines))
}

// ------------------- empty inputs -------------------

func TestEmptyDepartmentsYieldEmptyReport(t *testing.T) {
	revenue, lines := run(t, Dataset{
		Employees:    employees(emp{"E1", "Alice", "Sales", "D1"}),
		Transactions: transactions(txn{"E1", "100", "Sale"}),
		Departments:  departments(),
	})
	assert.Len(t, revenue, 1)
	assert.Empty(t, lines)
}

func TestEmptyTransactionsYieldZeroReport(t *testing.T) {
	revenue, lines := run(t, Dataset{
		Employees:    employees(emp{"E1", "Alice", "Sales", "D1"}),
		Transactions: transactions(),
		Departments:  departments("D1", "D2"),
	})
	assert.Empty(t, revenue)
	assert.Equal(t, []string{
		"(D1,null,null,null,0)",
		"(D2,null,null,null,0)",
	}, lineStrings(lines))
}

func TestEmptyEmployeesYieldZeroReport(t *testing.T) {
	revenue, lines := run(t, Dataset{
		Employees:    employees(),
		Transactions: transactions(txn{"E1", "100", "Sale"}),
		Departments:  departments("D1"),
	})
	assert.Empty(t, revenue)
	assert.Equal(t, []string{"(D1,null,null,null,0)"}, lineStrings(lines))
}

// ------------------- foreign keys and attributes -------------------

func TestUnknownDepartmentIsTolerated(t *testing.T) {
	sess := newSession(t)
	ds := Dataset{
		Employees: employees(
			emp{"E1", "Alice", "Sales", "D1"},
			emp{"E2", "Bob", "Sales", "D9"},
		),
		Transactions: transactions(txn{"E1", "10", "Sale"}, txn{"E2", "20", "Sale"}),
		Departments:  departments("D1"),
	}
	report, err := Process(context.Background(), sess, ds, DefaultOptions())
	require.NoError(t, err)

	revenue, lines := typed(t, report)
	require.Len(t, revenue, 2)
	assert.Equal(t, "D9", revenue[1].DepartmentID)
	assert.Equal(t, []string{"(D1,E1,Alice,10,10)"}, lineStrings(lines))
}

func TestDepartmentAttributesAreCarried(t *testing.T) {
	depts := relation.MustNew(model.RelDepartments, []string{model.ColDepartmentID, "departmentName"},
		relation.Row{relation.String("D1"), relation.String("North")},
		relation.Row{relation.String("D2"), relation.Null()},
	)
	report, err := Process(context.Background(), newSession(t), Dataset{
		Employees:    employees(emp{"E1", "Alice", "Sales", "D1"}),
		Transactions: transactions(txn{"E1", "10", "Sale"}),
		Departments:  depts,
	}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, append(append([]string(nil), reportColumns...), "departmentName"), report.DepartmentRevenue.Columns())
	_, lines := typed(t, report)
	require.Len(t, lines, 2)
	assert.Equal(t, map[string]string{"departmentName": "North"}, lines[0].Attributes)
	assert.Nil(t, lines[1].Attributes)
}

func TestDuplicateDepartmentIsKeyError(t *testing.T) {
	_, err := Process(context.Background(), newSession(t), Dataset{
		Employees:    employees(emp{"E1", "Alice", "Sales", "D1"}),
		Transactions: transactions(txn{"E1", "10", "Sale"}),
		Departments:  departments("D1", "D1"),
	}, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, relation.ErrKey))
	assert.Contains(t, err.Error(), "stage(broadcast_join)")
}

// ------------------- structural errors -------------------

func TestMissingColumnIsSchemaError(t *testing.T) {
	noType := relation.MustNew(model.RelEmployees,
		[]string{model.ColEmployeeID, model.ColEmployeeName, model.ColDepartmentID},
		relation.Row{relation.String("E1"), relation.String("Alice"), relation.String("D1")},
	)
	_, err := Process(context.Background(), newSession(t), Dataset{
		Employees:    noType,
		Transactions: transactions(txn{"E1", "10", "Sale"}),
		Departments:  departments("D1"),
	}, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, relation.ErrSchema))

	var serr *relation.SchemaError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, model.RelEmployees, serr.Relation)
	assert.Equal(t, model.ColEmployeeType, serr.Column)
	assert.Contains(t, err.Error(), "stage(filter)")
}

func TestNonNumericAmountIsTypeError(t *testing.T) {
	txns := relation.MustNew(model.RelTransactions,
		[]string{model.ColEmployeeID, model.ColTransactionAmount, model.ColTransactionType},
		relation.Row{relation.String("E1"), relation.String("ten"), relation.String("Sale")},
	)
	_, err := Process(context.Background(), newSession(t), Dataset{
		Employees:    employees(emp{"E1", "Alice", "Sales", "D1"}),
		Transactions: txns,
		Departments:  departments("D1"),
	}, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, relation.ErrType))

	var terr *relation.TypeError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, model.ColTransactionAmount, terr.Column)
	assert.Equal(t, 1, terr.Row)
}

func TestMissingInputIsRejected(t *testing.T) {
	_, err := Process(context.Background(), newSession(t), Dataset{
		Employees:    employees(),
		Transactions: transactions(),
	}, DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), model.RelDepartments)
}

func TestCancelledContextStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Process(ctx, newSession(t), Dataset{
		Employees:    employees(),
		Transactions: transactions(),
		Departments:  departments(),
	}, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptionsFor(t *testing.T) {
	sess := session.New(nil, nil, session.Options{Partitions: 4, Workers: 2, EmployeeType: "Retail"})
	defer sess.Close()

	opts := OptionsFor(sess, model.ReportJobSpec{})
	assert.Equal(t, Options{EmployeeType: "Retail", TransactionType: DefaultTransactionType, Partitions: 4, Workers: 2}, opts)

	opts = OptionsFor(sess, model.ReportJobSpec{
		Filters:     model.Filters{EmployeeType: "Sales", TransactionType: "Lease"},
		Concurrency: model.ConcurrencyConfig{Partitions: 7, Workers: 3},
	})
	assert.Equal(t, Options{EmployeeType: "Sales", TransactionType: "Lease", Partitions: 7, Workers: 3}, opts)
}
