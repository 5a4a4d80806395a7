package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-revenue-report/internal/model"
	"go-revenue-report/internal/relation"
	"go-revenue-report/internal/session"
	"go-revenue-report/pkg/utils"
)

// Default filter literals.
const (
	DefaultEmployeeType    = "Sales"
	DefaultTransactionType = "Sale"
)

// Options of one report run.
type Options struct {
	EmployeeType    string
	TransactionType string
	Partitions      int
	Workers         int // < 1 means one goroutine per partition
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		EmployeeType:    DefaultEmployeeType,
		TransactionType: DefaultTransactionType,
		Partitions:      relation.DefaultPartitions,
	}
}

// OptionsFor resolves the options of a job: its own settings win over the
// session's, which win over the defaults.
func OptionsFor(sess *session.Session, spec model.ReportJobSpec) Options {
	opts := DefaultOptions()
	pick := func(dst *string, vals ...string) {
		for _, v := range vals {
			if v != "" {
				*dst = v
				return
			}
		}
	}
	pick(&opts.EmployeeType, spec.Filters.EmployeeType, sess.Options.EmployeeType)
	pick(&opts.TransactionType, spec.Filters.TransactionType, sess.Options.TransactionType)

	switch {
	case spec.Concurrency.Partitions > 0:
		opts.Partitions = spec.Concurrency.Partitions
	case sess.Options.Partitions > 0:
		opts.Partitions = sess.Options.Partitions
	}
	switch {
	case spec.Concurrency.Workers > 0:
		opts.Workers = spec.Concurrency.Workers
	case sess.Options.Workers > 0:
		opts.Workers = sess.Options.Workers
	}
	return opts
}

// Report holds the two derived relations a run produces.
type Report struct {
	EmployeeRevenue   *relation.Relation
	DepartmentRevenue *relation.Relation
}

// ------------------- Core run -------------------

// Process runs every stage from filter to reconciliation on already loaded
// relations. Nothing is persisted, the inputs are not changed and the
// department index is released from the session cache on return.
func Process(ctx context.Context, sess *session.Session, ds Dataset, opts Options) (*Report, error) {
	return process(ctx, sess, ds, opts, NewTracker("", sess.Logger, nil))
}

func process(ctx context.Context, sess *session.Session, ds Dataset, opts Options, t *Tracker) (*Report, error) {
	if err := ds.loaded(); err != nil {
		return nil, err
	}
	defer sess.Release(ds.Departments)
	n, w := opts.Partitions, opts.Workers

	var emps, txns *relation.Relation
	err := t.Stage(ctx, model.StageFilter, ds.Employees.Len()+ds.Transactions.Len(), 0, 0, func() (int, error) {
		if err := ds.validate(); err != nil {
			return 0, err
		}
		var err error
		if emps, err = FilterEmployees(ds.Employees, opts.EmployeeType); err != nil {
			return 0, err
		}
		if txns, err = FilterTransactions(ds.Transactions, opts.TransactionType); err != nil {
			return 0, err
		}
		return emps.Len() + txns.Len(), nil
	})
	if err != nil {
		return nil, err
	}

	var empParts, txnParts []*relation.Relation
	err = t.Stage(ctx, model.StagePartition, emps.Len()+txns.Len(), n, 0, func() (int, error) {
		var err error
		empParts, txnParts, err = PartitionInputs(emps, txns, n)
		return emps.Len() + txns.Len(), err
	})
	if err != nil {
		return nil, err
	}

	var employeeRevenue *relation.Relation
	err = t.Stage(ctx, model.StageEmployeeJoin, emps.Len()+txns.Len(), len(empParts), w, func() (int, error) {
		var err error
		if employeeRevenue, err = JoinAggregate(ctx, empParts, txnParts, w); err != nil {
			return 0, err
		}
		return employeeRevenue.Len(), nil
	})
	if err != nil {
		return nil, err
	}

	var attached *relation.Relation
	err = t.Stage(ctx, model.StageBroadcastJoin, employeeRevenue.Len(), n, w, func() (int, error) {
		var err error
		if attached, err = AttachDepartments(ctx, sess, employeeRevenue, ds.Departments, n, w); err != nil {
			return 0, err
		}
		return attached.Len(), nil
	})
	if err != nil {
		return nil, err
	}

	var aggregates *relation.Relation
	err = t.Stage(ctx, model.StageDepartmentAgg, attached.Len(), n, w, func() (int, error) {
		var err error
		if aggregates, err = AggregateDepartmentRevenue(ctx, attached, n, w); err != nil {
			return 0, err
		}
		return aggregates.Len(), nil
	})
	if err != nil {
		return nil, err
	}

	var final *relation.Relation
	err = t.Stage(ctx, model.StageReconciliation, aggregates.Len()+ds.Departments.Len(), 0, 0, func() (int, error) {
		var err error
		if final, err = Reconcile(sess, aggregates, employeeRevenue, ds.Departments); err != nil {
			return 0, err
		}
		return final.Len(), nil
	})
	if err != nil {
		return nil, err
	}

	return &Report{EmployeeRevenue: employeeRevenue, DepartmentRevenue: final}, nil
}

type input struct {
	name   string
	rel    *relation.Relation
	schema Schema
}

func (ds Dataset) inputs() []input {
	return []input{
		{model.RelEmployees, ds.Employees, EmployeeSchema},
		{model.RelTransactions, ds.Transactions, TransactionSchema},
		{model.RelDepartments, ds.Departments, DepartmentSchema},
	}
}

func (ds Dataset) loaded() error {
	for _, in := range ds.inputs() {
		if in.rel == nil {
			return fmt.Errorf("relation %q: not loaded", in.name)
		}
	}
	return nil
}

// validate checks every input against its schema.
func (ds Dataset) validate() error {
	for _, in := range ds.inputs() {
		if err := in.schema.Validate(in.rel); err != nil {
			return err
		}
	}
	return nil
}

// ------------------- Jobs -------------------

// NewJob assigns an id to spec and records it as pending when the session
// has a store.
func NewJob(sess *session.Session, spec model.ReportJobSpec) (string, error) {
	jobID := uuid.New().String()
	if sess.Store != nil {
		if err := sess.Store.SaveJob(jobID, spec); err != nil {
			return "", fmt.Errorf("save job: %w", err)
		}
	}
	return jobID, nil
}

// Run executes a report job end to end: load the inputs, process them,
// export the report and record progress against jobID. Console output of the
// export stage goes to out.
func Run(ctx context.Context, sess *session.Session, jobID string, spec model.ReportJobSpec, out io.Writer) (result *model.ReportResult, err error) {
	logger := sess.Logger.With(zap.String("job_id", jobID))
	tracker := NewTracker(jobID, sess.Logger, recorder(sess))
	if sess.Store != nil {
		if e := sess.Store.UpdateJobStatus(jobID, model.StatusRunning); e != nil {
			logger.Warn("failed to update job status", zap.Error(e))
		}
	}
	defer func() {
		if err != nil {
			tracker.Fail(err)
		}
	}()

	timeout := sess.Options.JobTimeout
	if spec.Concurrency.JobTimeout != "" {
		timeout = utils.ParseDuration(spec.Concurrency.JobTimeout)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	opts := OptionsFor(sess, spec)
	logger.Info("report started",
		zap.String("employee_type", opts.EmployeeType),
		zap.String("transaction_type", opts.TransactionType),
		zap.Int("partitions", opts.Partitions),
		zap.Int("workers", opts.Workers),
		zap.Duration("timeout", timeout),
	)

	var ds Dataset
	err = tracker.Stage(ctx, model.StageIngestion, 0, 0, 3, func() (int, error) {
		var err error
		if ds, err = LoadInputs(ctx, sess, spec.Inputs); err != nil {
			return 0, err
		}
		return ds.Employees.Len() + ds.Transactions.Len() + ds.Departments.Len(), nil
	})
	if err != nil {
		return nil, err
	}

	report, err := process(ctx, sess, ds, opts, tracker)
	if err != nil {
		return nil, err
	}

	employees, err := EmployeeRevenueRecords(report.EmployeeRevenue)
	if err != nil {
		return nil, err
	}
	lines, err := ReportLines(report.DepartmentRevenue)
	if err != nil {
		return nil, err
	}

	var exports []model.ExportResult
	if spec.Export != nil {
		sink := NewSink(sess, jobID, out)
		err = tracker.Stage(ctx, model.StageExport, report.DepartmentRevenue.Len(), 0, 0, func() (int, error) {
			exports = sink.Export(report.DepartmentRevenue, *spec.Export)
			exported := 0
			for _, e := range exports {
				if e.Success {
					exported += e.RecordCount
				}
			}
			return exported, nil
		})
		if err != nil {
			return nil, err
		}
	}

	tracker.Complete()
	return &model.ReportResult{
		JobID:           jobID,
		Status:          model.StatusCompleted,
		EmployeeRevenue: employees,
		Lines:           lines,
		Metrics:         tracker.Metrics(),
		Exports:         exports,
	}, nil
}

// recorder returns the session store as a Recorder, or nil without one.
func recorder(sess *session.Session) Recorder {
	if sess.Store == nil {
		return nil
	}
	return sess.Store
}
