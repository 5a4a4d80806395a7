package relation

import (
	"fmt"
	"sort"
)

// Where keeps the rows whose col equals v. Null never equals anything.
func (r *Relation) Where(col string, v Value) (*Relation, error) {
	i, err := r.col(col)
	if err != nil {
		return nil, err
	}
	out := derive(r.name, r.columns, 0)
	if v.IsNull() {
		return out, nil
	}
	for _, row := range r.rows {
		if row[i].Equal(v) {
			out.rows = append(out.rows, row)
		}
	}
	return out, nil
}

// Filter keeps the rows for which pred returns true.
func (r *Relation) Filter(pred func(Tuple) bool) *Relation {
	out := derive(r.name, r.columns, 0)
	for _, row := range r.rows {
		if pred(Tuple{rel: r, row: row}) {
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// Select projects r onto cols, in the given order. Duplicates are not removed:
// relations here have bag semantics like the dataframes they stand in for.
func (r *Relation) Select(cols ...string) (*Relation, error) {
	idx := make([]int, len(cols))
	for n, c := range cols {
		i, err := r.col(c)
		if err != nil {
			return nil, err
		}
		idx[n] = i
	}
	out, err := newEmpty(r.name, cols)
	if err != nil {
		return nil, err
	}
	out.rows = make([]Row, len(r.rows))
	for n, row := range r.rows {
		p := make(Row, len(idx))
		for k, i := range idx {
			p[k] = row[i]
		}
		out.rows[n] = p
	}
	return out, nil
}

// Rename changes the name of column from to to.
func (r *Relation) Rename(from, to string) (*Relation, error) {
	i, err := r.col(from)
	if err != nil {
		return nil, err
	}
	cols := r.Columns()
	cols[i] = to
	out, err := newEmpty(r.name, cols)
	if err != nil {
		return nil, err
	}
	out.rows = append(out.rows, r.rows...)
	return out, nil
}

// FillNull replaces null values of col with v. Other columns are untouched.
func (r *Relation) FillNull(col string, v Value) (*Relation, error) {
	i, err := r.col(col)
	if err != nil {
		return nil, err
	}
	out := derive(r.name, r.columns, len(r.rows))
	for _, row := range r.rows {
		if row[i].IsNull() {
			row = row.clone()
			row[i] = v
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}

// Sort returns r ordered by cols, ascending, nulls last. The sort is stable.
func (r *Relation) Sort(cols ...string) (*Relation, error) {
	idx := make([]int, len(cols))
	for n, c := range cols {
		i, err := r.col(c)
		if err != nil {
			return nil, err
		}
		idx[n] = i
	}
	out := r.Named(r.name)
	sort.SliceStable(out.rows, func(a, b int) bool {
		for _, i := range idx {
			if c := out.rows[a][i].Compare(out.rows[b][i]); c != 0 {
				return c < 0
			}
		}
		return false
	})
	return out, nil
}

// Union concatenates relations with identical column lists. The result takes
// the name of the first relation.
func Union(rels ...*Relation) (*Relation, error) {
	if len(rels) == 0 {
		return nil, fmt.Errorf("union: no relations")
	}
	first := rels[0]
	total := 0
	for _, r := range rels {
		if len(r.columns) != len(first.columns) {
			return nil, &SchemaError{Relation: r.name, Reason: "union of relations with different columns"}
		}
		for i, c := range r.columns {
			if first.columns[i] != c {
				return nil, &SchemaError{Relation: r.name, Column: c, Reason: "union of relations with different columns"}
			}
		}
		total += len(r.rows)
	}
	out := derive(first.name, first.columns, total)
	for _, r := range rels {
		out.rows = append(out.rows, r.rows...)
	}
	return out, nil
}
