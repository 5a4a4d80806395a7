package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"go-revenue-report/internal/model"
	"go-revenue-report/internal/relation"
	"go-revenue-report/internal/session"
	"go-revenue-report/pkg/utils"
)

// Sink renders a finished report to the console and to files.
type Sink struct {
	jobID   string
	out     io.Writer
	outputs *utils.OutputManager
	logger  *zap.Logger
}

// NewSink creates a sink for one job. Console output goes to out; relative
// file names are placed in the job's directory under the session output dir.
func NewSink(sess *session.Session, jobID string, out io.Writer) *Sink {
	if out == nil {
		out = io.Discard
	}
	return &Sink{
		jobID:   jobID,
		out:     out,
		outputs: utils.NewOutputManager(sess.Options.OutputDir),
		logger:  sess.Logger.With(zap.String("job_id", jobID)),
	}
}

// Export writes report to every target of spec. A failed target is reported
// in its result and does not stop the others.
func (s *Sink) Export(report *relation.Relation, spec model.Export) []model.ExportResult {
	var results []model.ExportResult
	if spec.Console {
		results = append(results, s.exportToConsole(report))
	}
	if spec.File != "" {
		results = append(results, s.exportToFile(report, spec.File))
	}
	return results
}

func (s *Sink) exportToConsole(report *relation.Relation) model.ExportResult {
	err := RenderTable(s.out, report, true)
	return s.result("console", "", report.Len(), err)
}

// exportToFile picks the format from the file extension; unknown extensions
// get CSV.
func (s *Sink) exportToFile(report *relation.Relation, file string) model.ExportResult {
	path, err := s.outputs.GetOutputFilePath(s.jobID, file)
	if err != nil {
		return s.result("file", file, 0, err)
	}

	fileType := s.outputs.GetFileType(path)
	var count int
	switch fileType {
	case "json":
		count, err = s.exportToJSON(report, path)
	case "text":
		count, err = report.Len(), writeFile(path, func(w io.Writer) error {
			return RenderTable(w, report, false)
		})
	default:
		fileType = "csv"
		count, err = s.exportToCSV(report, path)
	}
	return s.result(fileType, path, count, err)
}

func (s *Sink) result(typ, path string, count int, err error) model.ExportResult {
	res := model.ExportResult{
		Type:        typ,
		Path:        path,
		RecordCount: count,
		Success:     err == nil,
		Timestamp:   time.Now(),
	}
	if err != nil {
		res.Error = err.Error()
		s.logger.Error("export failed", zap.String("type", typ), zap.String("path", path), zap.Error(err))
		return res
	}
	s.logger.Info("report exported", zap.String("type", typ), zap.String("path", path), zap.Int("records", count))
	return res
}

// exportToCSV writes the report columns as they are; nulls become empty cells.
func (s *Sink) exportToCSV(report *relation.Relation, path string) (int, error) {
	count := 0
	err := writeFile(path, func(w io.Writer) error {
		writer := csv.NewWriter(w)
		if err := writer.Write(report.Columns()); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		for _, row := range report.Rows() {
			record := make([]string, len(row))
			for i, v := range row {
				record[i] = str(v)
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
			count++
		}
		writer.Flush()
		return writer.Error()
	})
	return count, err
}

// exportToJSON writes the typed report lines with export metadata.
func (s *Sink) exportToJSON(report *relation.Relation, path string) (int, error) {
	lines, err := ReportLines(report)
	if err != nil {
		return 0, err
	}
	err = writeFile(path, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]interface{}{
			"export_info": map[string]interface{}{
				"job_id":       s.jobID,
				"exported_at":  time.Now().UTC(),
				"record_count": len(lines),
				"export_type":  "department_revenue",
			},
			"data": lines,
		})
	})
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}

func writeFile(path string, fn func(w io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := fn(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ------------------- Table rendering -------------------

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	nullColor   = color.New(color.Faint)
)

// RenderTable draws rel as a boxed text table with a row count footer. Widths
// are counted in runes, matching fmt padding. When
// colored is set the header and null cells are styled; colour is still
// dropped when color.NoColor is set.
func RenderTable(w io.Writer, rel *relation.Relation, colored bool) error {
	cols := rel.Columns()
	rows := rel.Rows()
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range rows {
		for i, v := range row {
			if n := utf8.RuneCountInString(v.String()); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	border := func() {
		b.WriteString("+")
		for _, n := range widths {
			b.WriteString(strings.Repeat("-", n+2))
			b.WriteString("+")
		}
		b.WriteString("\n")
	}
	cell := func(text string, width int, style *color.Color) {
		padded := fmt.Sprintf(" %-*s ", width, text)
		if colored && style != nil {
			padded = style.Sprint(padded)
		}
		b.WriteString(padded)
		b.WriteString("|")
	}

	border()
	b.WriteString("|")
	for i, c := range cols {
		cell(c, widths[i], headerColor)
	}
	b.WriteString("\n")
	border()
	for _, row := range rows {
		b.WriteString("|")
		for i, v := range row {
			var style *color.Color
			if v.IsNull() {
				style = nullColor
			}
			cell(v.String(), widths[i], style)
		}
		b.WriteString("\n")
	}
	border()
	fmt.Fprintf(&b, "%d row(s)\n", len(rows))

	_, err := io.WriteString(w, b.String())
	return err
}
