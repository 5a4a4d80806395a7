package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"go-revenue-report/internal/config"
	"go-revenue-report/internal/model"
	"go-revenue-report/internal/observability"
	"go-revenue-report/internal/pipeline"
	"go-revenue-report/internal/session"
	"go-revenue-report/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Fatal("report failed", zap.Error(err))
	}
}

// run parses args over the configured defaults, computes the report and
// prints it to stdout.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	fs.SetOutput(stdout)
	var (
		employees       = fs.String("employees", cfg.Inputs.Employees, "employees CSV path or URL")
		transactions    = fs.String("transactions", cfg.Inputs.Transactions, "transactions CSV path or URL")
		departments     = fs.String("departments", cfg.Inputs.Departments, "departments CSV path or URL")
		employeeType    = fs.String("employee-type", cfg.Report.EmployeeType, "employeeType kept by the filter stage")
		transactionType = fs.String("transaction-type", cfg.Report.TransactionType, "transactionType kept by the filter stage")
		partitions      = fs.Int("partitions", cfg.Report.Partitions, "number of hash partitions")
		workers         = fs.Int("workers", cfg.Report.Workers, "partitions processed concurrently, 0 for all")
		timeout         = fs.Duration("timeout", cfg.Report.JobTimeout, "job timeout")
		out             = fs.String("out", "", "also write the report to this file (.csv, .json or .txt)")
		quiet           = fs.Bool("quiet", false, "do not print the report table")
		track           = fs.Bool("track", false, "record the job in the sqlite store at DB_PATH")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *partitions < 1 {
		return fmt.Errorf("-partitions must be at least 1, got %d", *partitions)
	}

	var st *store.Store
	if *track {
		var err error
		if st, err = store.Open(cfg.Store.Path); err != nil {
			return fmt.Errorf("open store: %w", err)
		}
	}
	opts := session.OptionsFromConfig(cfg)
	opts.JobTimeout = *timeout
	sess := session.New(logger, st, opts)
	defer sess.Close()

	spec := model.ReportJobSpec{
		Inputs: model.Inputs{
			Employees:    *employees,
			Transactions: *transactions,
			Departments:  *departments,
		},
		Filters: model.Filters{
			EmployeeType:    *employeeType,
			TransactionType: *transactionType,
		},
		Concurrency: model.ConcurrencyConfig{
			Partitions: *partitions,
			Workers:    *workers,
		},
	}
	if !*quiet || *out != "" {
		spec.Export = &model.Export{Console: !*quiet}
		if *out != "" {
			abs, err := filepath.Abs(*out)
			if err != nil {
				return err
			}
			spec.Export.File = abs
		}
	}

	jobID, err := pipeline.NewJob(sess, spec)
	if err != nil {
		return err
	}
	res, err := pipeline.Run(ctx, sess, jobID, spec, stdout)
	if err != nil {
		return err
	}

	for _, e := range res.Exports {
		if !e.Success {
			return fmt.Errorf("export %s: %s", e.Type, e.Error)
		}
	}
	logger.Info("report completed",
		zap.String("job_id", jobID),
		zap.Int("employees", len(res.EmployeeRevenue)),
		zap.Int("lines", len(res.Lines)),
		zap.Duration("elapsed", res.Metrics.ProcessingTime),
	)
	return nil
}
