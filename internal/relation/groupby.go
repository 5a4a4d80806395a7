package relation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MeanPrecision is the number of fractional digits a mean is rounded to.
const MeanPrecision = 16

// AggFunc is a reduction over the non-null values of one column.
type AggFunc int

const (
	AggSum AggFunc = iota
	AggMean
	AggCount
)

func (f AggFunc) String() string {
	switch f {
	case AggSum:
		return "sum"
	case AggMean:
		return "avg"
	case AggCount:
		return "count"
	default:
		return "unknown"
	}
}

// Aggregation describes one output column of GroupBy.
type Aggregation struct {
	Func   AggFunc
	Column string
	Alias  string
}

// Sum returns sum(col) named sum(col) until renamed with As.
func Sum(col string) Aggregation { return Aggregation{Func: AggSum, Column: col} }

// Mean returns avg(col).
func Mean(col string) Aggregation { return Aggregation{Func: AggMean, Column: col} }

// Count returns count(col), the number of non-null values.
func Count(col string) Aggregation { return Aggregation{Func: AggCount, Column: col} }

// As names the output column.
func (a Aggregation) As(name string) Aggregation {
	a.Alias = name
	return a
}

func (a Aggregation) name() string {
	if a.Alias != "" {
		return a.Alias
	}
	return fmt.Sprintf("%s(%s)", a.Func, a.Column)
}

// accumulator keeps an exact running sum and count of non-null values, so the
// result does not depend on the order values arrive in.
type accumulator struct {
	sum   decimal.Decimal
	count int64
}

func (acc *accumulator) add(v decimal.Decimal) {
	acc.sum = acc.sum.Add(v)
	acc.count++
}

func (acc accumulator) result(f AggFunc) Value {
	switch f {
	case AggCount:
		return Int(acc.count)
	case AggSum:
		if acc.count == 0 {
			return Null()
		}
		return Decimal(acc.sum)
	case AggMean:
		if acc.count == 0 {
			return Null()
		}
		return Decimal(acc.sum.DivRound(decimal.NewFromInt(acc.count), MeanPrecision))
	default:
		return Null()
	}
}

type group struct {
	key  Row
	accs []accumulator
}

// GroupBy groups r by keys and evaluates aggs per group. Output columns are
// keys followed by the aggregation names; groups appear in order of first
// occurrence. Null is a valid group key. Sum and mean over a group with no
// non-null values yield null. A non-numeric value in an aggregated column is a
// TypeError.
func (r *Relation) GroupBy(keys []string, aggs ...Aggregation) (*Relation, error) {
	kidx := make([]int, len(keys))
	for n, k := range keys {
		i, err := r.col(k)
		if err != nil {
			return nil, err
		}
		kidx[n] = i
	}
	aidx := make([]int, len(aggs))
	cols := append([]string(nil), keys...)
	for n, a := range aggs {
		i, err := r.col(a.Column)
		if err != nil {
			return nil, err
		}
		aidx[n] = i
		cols = append(cols, a.name())
	}
	out, err := newEmpty(r.name, cols)
	if err != nil {
		return nil, err
	}

	groups := make(map[string]*group)
	var order []*group
	for rowNum, row := range r.rows {
		key := make(Row, len(kidx))
		gk := ""
		for n, i := range kidx {
			key[n] = row[i]
			gk += row[i].key() + "\x00"
		}
		g, ok := groups[gk]
		if !ok {
			g = &group{key: key, accs: make([]accumulator, len(aggs))}
			groups[gk] = g
			order = append(order, g)
		}
		for n, i := range aidx {
			v := row[i]
			if v.IsNull() {
				continue
			}
			if aggs[n].Func == AggCount {
				g.accs[n].count++
				continue
			}
			d, ok := v.Num()
			if !ok {
				return nil, &TypeError{Relation: r.name, Column: r.columns[i], Row: rowNum + 1, Value: v.String()}
			}
			g.accs[n].add(d)
		}
	}

	out.rows = make([]Row, 0, len(order))
	for _, g := range order {
		row := append(Row(nil), g.key...)
		for n, a := range aggs {
			row = append(row, g.accs[n].result(a.Func))
		}
		out.rows = append(out.rows, row)
	}
	return out, nil
}
