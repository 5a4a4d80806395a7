package relation

import "fmt"

// JoinKind selects which unmatched rows an equi-join keeps.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftOuterJoin
	RightOuterJoin
	FullOuterJoin
)

func (k JoinKind) String() string {
	switch k {
	case InnerJoin:
		return "inner"
	case LeftOuterJoin:
		return "left_outer"
	case RightOuterJoin:
		return "right_outer"
	case FullOuterJoin:
		return "full_outer"
	default:
		return fmt.Sprintf("JoinKind(%d)", int(k))
	}
}

func (k JoinKind) keepLeft() bool  { return k == LeftOuterJoin || k == FullOuterJoin }
func (k JoinKind) keepRight() bool { return k == RightOuterJoin || k == FullOuterJoin }

// Index is a hash index of a relation on one column. It is read-only once
// built and may be shared by any number of concurrent probes.
type Index struct {
	rel     *Relation
	key     string
	col     int
	buckets map[string][]int
}

// Index builds a hash index of r on key. Null keys are not indexed.
func (r *Relation) Index(key string) (*Index, error) {
	return r.buildIndex(key, false)
}

// UniqueIndex is Index but fails with a KeyError when key repeats.
func (r *Relation) UniqueIndex(key string) (*Index, error) {
	return r.buildIndex(key, true)
}

func (r *Relation) buildIndex(key string, unique bool) (*Index, error) {
	i, err := r.col(key)
	if err != nil {
		return nil, err
	}
	idx := &Index{rel: r, key: key, col: i, buckets: make(map[string][]int, len(r.rows))}
	for n, row := range r.rows {
		v := row[i]
		if v.IsNull() {
			continue
		}
		k := v.key()
		if unique && len(idx.buckets[k]) > 0 {
			return nil, &KeyError{Relation: r.name, Column: key, Value: v}
		}
		idx.buckets[k] = append(idx.buckets[k], n)
	}
	return idx, nil
}

// Relation returns the indexed relation.
func (idx *Index) Relation() *Relation { return idx.rel }

// Key returns the indexed column.
func (idx *Index) Key() string { return idx.key }

// Lookup returns the rows whose key equals v.
func (idx *Index) Lookup(v Value) []Tuple {
	if v.IsNull() {
		return nil
	}
	hits := idx.buckets[v.key()]
	out := make([]Tuple, len(hits))
	for n, i := range hits {
		out[n] = Tuple{rel: idx.rel, row: idx.rel.rows[i]}
	}
	return out
}

// Join equi-joins r with right on the column key, which both sides must
// have. The key appears once in the output, followed by the remaining columns
// of r and then those of right. For outer kinds the key column takes
// whichever side is present. A non-key column present on both sides is a
// SchemaError.
func (r *Relation) Join(right *Relation, key string, kind JoinKind) (*Relation, error) {
	idx, err := right.Index(key)
	if err != nil {
		return nil, err
	}
	return r.JoinIndex(idx, kind)
}

// JoinIndex is Join against a prebuilt index of the right side. It is the
// broadcast form: the index is built once and probed by many left relations.
func (r *Relation) JoinIndex(idx *Index, kind JoinKind) (*Relation, error) {
	right := idx.rel
	key := idx.key
	lk, err := r.col(key)
	if err != nil {
		return nil, err
	}
	rk := idx.col

	cols := []string{key}
	var lcols, rcols []int
	seen := map[string]bool{key: true}
	for i, c := range r.columns {
		if i == lk {
			continue
		}
		seen[c] = true
		cols = append(cols, c)
		lcols = append(lcols, i)
	}
	for i, c := range right.columns {
		if i == rk {
			continue
		}
		if seen[c] {
			return nil, &SchemaError{
				Relation: right.name,
				Column:   c,
				Reason:   fmt.Sprintf("ambiguous column in join with %q", r.name),
			}
		}
		cols = append(cols, c)
		rcols = append(rcols, i)
	}

	out := derive(r.name, cols, len(r.rows))
	emit := func(k Value, lrow, rrow Row) {
		row := make(Row, 0, len(cols))
		row = append(row, k)
		for _, i := range lcols {
			if lrow == nil {
				row = append(row, Null())
			} else {
				row = append(row, lrow[i])
			}
		}
		for _, i := range rcols {
			if rrow == nil {
				row = append(row, Null())
			} else {
				row = append(row, rrow[i])
			}
		}
		out.rows = append(out.rows, row)
	}

	var matched []bool
	if kind.keepRight() {
		matched = make([]bool, len(right.rows))
	}
	for _, lrow := range r.rows {
		k := lrow[lk]
		hits := idx.buckets[k.key()]
		if k.IsNull() {
			hits = nil
		}
		if len(hits) == 0 {
			if kind.keepLeft() {
				emit(k, lrow, nil)
			}
			continue
		}
		for _, i := range hits {
			emit(k, lrow, right.rows[i])
			if matched != nil {
				matched[i] = true
			}
		}
	}
	for i, ok := range matched {
		if !ok {
			rrow := right.rows[i]
			emit(rrow[rk], nil, rrow)
		}
	}
	return out, nil
}
