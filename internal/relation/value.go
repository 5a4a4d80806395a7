package relation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies the type held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindDecimal
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindDecimal:
		return "decimal"
	default:
		return "unknown"
	}
}

// Value is a nullable scalar cell. The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  decimal.Decimal
}

// Null returns the absent value.
func Null() Value { return Value{} }

// String wraps s as a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Decimal wraps d as a numeric value.
func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, num: d} }

// Int is a shorthand for Decimal(decimal.NewFromInt(i)).
func Int(i int64) Value { return Decimal(decimal.NewFromInt(i)) }

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload; ok is false unless v holds a string.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Num returns the decimal payload; ok is false unless v holds a decimal.
func (v Value) Num() (decimal.Decimal, bool) {
	if v.kind != KindDecimal {
		return decimal.Zero, false
	}
	return v.num, true
}

// Equal reports whether both values have the same kind and payload. Two nulls
// are equal here; join matching treats null keys separately.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindDecimal:
		return v.num.Equal(o.num)
	default:
		return true
	}
}

// Compare orders values: nulls sort after everything else, decimals before
// strings, then by payload.
func (v Value) Compare(o Value) int {
	if v.kind != o.kind {
		switch {
		case v.kind == KindNull:
			return 1
		case o.kind == KindNull:
			return -1
		case v.kind == KindDecimal:
			return -1
		default:
			return 1
		}
	}
	switch v.kind {
	case KindString:
		return strings.Compare(v.str, o.str)
	case KindDecimal:
		return v.num.Cmp(o.num)
	default:
		return 0
	}
}

// key is the canonical encoding used for hashing, grouping and join lookup.
func (v Value) key() string {
	switch v.kind {
	case KindString:
		return "s:" + v.str
	case KindDecimal:
		return "d:" + v.num.String()
	default:
		return "n:"
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindDecimal:
		return v.num.String()
	default:
		return "null"
	}
}

// GoString renders the value for test failure messages.
func (v Value) GoString() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindDecimal:
		return v.num.String()
	default:
		return "null"
	}
}
