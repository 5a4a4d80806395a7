package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-revenue-report/internal/model"
	"go-revenue-report/internal/relation"
	"go-revenue-report/internal/session"
	"go-revenue-report/pkg/utils"
)

// Dataset is the three input relations of a report.
type Dataset struct {
	Employees    *relation.Relation
	Transactions *relation.Relation
	Departments  *relation.Relation
}

// ------------------- Ingestion -------------------

// LoadInputs loads the three sources in parallel. The first failure aborts the
// others.
func LoadInputs(ctx context.Context, sess *session.Session, in model.Inputs) (Dataset, error) {
	var ds Dataset
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ds.Employees, err = LoadCSV(ctx, sess, model.RelEmployees, in.Employees, EmployeeSchema)
		return err
	})
	g.Go(func() (err error) {
		ds.Transactions, err = LoadCSV(ctx, sess, model.RelTransactions, in.Transactions, TransactionSchema)
		return err
	})
	g.Go(func() (err error) {
		ds.Departments, err = LoadCSV(ctx, sess, model.RelDepartments, in.Departments, DepartmentSchema)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// LoadCSV reads a delimited file with a header row from a local path or an
// http(s) URL into a relation named name.
func LoadCSV(ctx context.Context, sess *session.Session, name, pathOrURL string, schema Schema) (*relation.Relation, error) {
	if pathOrURL == "" {
		return nil, fmt.Errorf("relation %q: no source given", name)
	}
	start := time.Now()

	var reader io.Reader
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pathOrURL, nil)
		if err != nil {
			return nil, fmt.Errorf("relation %q: %w", name, err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("relation %q: failed to GET CSV: %w", name, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("relation %q: failed to GET CSV: %s", name, resp.Status)
		}
		reader = resp.Body
	} else {
		file, err := os.Open(pathOrURL)
		if err != nil {
			return nil, fmt.Errorf("relation %q: failed to open CSV file: %w", name, err)
		}
		defer file.Close()
		reader = file
	}

	rel, err := ReadCSV(name, reader, schema)
	if err != nil {
		return nil, err
	}
	sess.Logger.Info("source loaded",
		zap.String("relation", name),
		zap.String("source", pathOrURL),
		zap.Int("rows", rel.Len()),
		zap.Duration("duration", time.Since(start)),
	)
	return rel, nil
}

// ReadCSV parses comma separated data. The first record is the header; header
// names are trimmed and unquoted. Empty cells become null, numeric columns of
// schema are parsed as decimals and every other column is kept as a string.
func ReadCSV(name string, r io.Reader, schema Schema) (*relation.Relation, error) {
	csvReader := csv.NewReader(r)
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true

	rawHeader, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &relation.SchemaError{Relation: name, Reason: "missing header row"}
	}
	if err != nil {
		return nil, fmt.Errorf("relation %q: failed to read CSV header: %w", name, err)
	}
	headers := make([]string, len(rawHeader))
	for i, h := range rawHeader {
		headers[i] = utils.CleanHeader(h)
	}
	if err := schema.validateHeader(name, headers); err != nil {
		return nil, err
	}
	numeric := make([]bool, len(headers))
	for i, h := range headers {
		numeric[i] = schema.isNumeric(h)
	}

	var rows []relation.Row
	for line := 1; ; line++ {
		record, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && errors.Is(perr.Err, csv.ErrFieldCount) {
				return nil, &relation.SchemaError{
					Relation: name,
					Reason:   fmt.Sprintf("row %d has %d fields, header has %d", line, len(record), len(headers)),
				}
			}
			return nil, fmt.Errorf("relation %q: CSV read error: %w", name, err)
		}

		row := make(relation.Row, len(headers))
		for i, cell := range record {
			s, ok := utils.ParseCell(cell)
			switch {
			case !ok:
				row[i] = relation.Null()
			case numeric[i]:
				d, err := utils.ParseDecimal(s)
				if err != nil {
					return nil, &relation.TypeError{Relation: name, Column: headers[i], Row: line, Value: s, Cause: err}
				}
				if !d.Valid {
					row[i] = relation.Null()
					continue
				}
				row[i] = relation.Decimal(d.Decimal)
			default:
				row[i] = relation.String(s)
			}
		}
		rows = append(rows, row)
	}

	return relation.New(name, headers, rows)
}
