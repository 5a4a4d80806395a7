// Package relation implements an immutable, schema-typed in-memory table and
// the relational operations the revenue report is built from: restriction,
// projection, equi-joins, grouping with sum and mean, null-fill and key
// partitioning.
//
// Every operation returns a new Relation. Rows handed to New are copied and
// rows handed out by Rows are copies, so a relation observed by one stage can
// never change underneath another.
package relation

import (
	"fmt"
	"strings"
)

// Row is one tuple, positionally aligned with the relation's columns.
type Row []Value

func (r Row) clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Relation is a named table with a fixed list of columns.
type Relation struct {
	name    string
	columns []string
	index   map[string]int
	rows    []Row
}

// New builds a relation. Column names must be unique and every row must have
// exactly one value per column.
func New(name string, columns []string, rows []Row) (*Relation, error) {
	r, err := newEmpty(name, columns)
	if err != nil {
		return nil, err
	}
	r.rows = make([]Row, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, &SchemaError{
				Relation: name,
				Column:   "",
				Reason:   fmt.Sprintf("row %d has %d values, want %d", i+1, len(row), len(columns)),
			}
		}
		r.rows = append(r.rows, row.clone())
	}
	return r, nil
}

// MustNew is New for literals in tests and fixtures; it panics on error.
func MustNew(name string, columns []string, rows ...Row) *Relation {
	r, err := New(name, columns, rows)
	if err != nil {
		panic(err)
	}
	return r
}

func newEmpty(name string, columns []string) (*Relation, error) {
	r := &Relation{
		name:    name,
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := r.index[c]; dup {
			return nil, &SchemaError{Relation: name, Column: c, Reason: "duplicate column"}
		}
		r.index[c] = i
	}
	return r, nil
}

// derive creates an empty relation sharing nothing mutable with r. The caller
// guarantees the columns are unique.
func derive(name string, columns []string, capacity int) *Relation {
	r, _ := newEmpty(name, columns)
	r.rows = make([]Row, 0, capacity)
	return r
}

func (r *Relation) Name() string { return r.name }
func (r *Relation) Len() int { return len(r.rows) }

// Columns returns a copy of the column list.
func (r *Relation) Columns() []string { return append([]string(nil), r.columns...) }

// Has reports whether col is part of the schema.
func (r *Relation) Has(col string) bool {
	_, ok := r.index[col]
	return ok
}

// Require returns a SchemaError naming the first missing column.
func (r *Relation) Require(cols ...string) error {
	for _, c := range cols {
		if !r.Has(c) {
			return missingColumn(r.name, c)
		}
	}
	return nil
}

// Rows returns a copy of all rows.
func (r *Relation) Rows() []Row {
	out := make([]Row, len(r.rows))
	for i, row := range r.rows {
		out[i] = row.clone()
	}
	return out
}

// Tuples returns every row as a Tuple for name based access.
func (r *Relation) Tuples() []Tuple {
	out := make([]Tuple, len(r.rows))
	for i, row := range r.rows {
		out[i] = Tuple{rel: r, row: row}
	}
	return out
}

// Named returns a copy of r under a different relation name.
func (r *Relation) Named(name string) *Relation {
	out := derive(name, r.columns, len(r.rows))
	out.rows = append(out.rows, r.rows...)
	return out
}

func (r *Relation) col(c string) (int, error) {
	i, ok := r.index[c]
	if !ok {
		return 0, missingColumn(r.name, c)
	}
	return i, nil
}

// String renders the relation as a small aligned text table; used in logs and
// test failure output.
func (r *Relation) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s)\n", r.name, strings.Join(r.columns, ", "))
	for _, row := range r.rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.GoString()
		}
		fmt.Fprintf(&b, "  (%s)\n", strings.Join(cells, ", "))
	}
	return b.String()
}

// Tuple is a read-only view of one row with access by column name.
type Tuple struct {
	rel *Relation
	row Row
}

// Get returns the value of col, or null when the column does not exist.
func (t Tuple) Get(col string) Value {
	i, ok := t.rel.index[col]
	if !ok {
		return Null()
	}
	return t.row[i]
}

// Row returns a copy of the underlying row.
func (t Tuple) Row() Row { return t.row.clone() }
