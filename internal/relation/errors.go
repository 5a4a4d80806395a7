package relation

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema matches every *SchemaError.
	ErrSchema = errors.New("schema error")
	// ErrType matches every *TypeError.
	ErrType = errors.New("type error")
	// ErrKey matches every *KeyError.
	ErrKey = errors.New("key error")
)

// SchemaError reports a column the operation needs that a relation does not
// have, or a column name clash.
type SchemaError struct {
	Relation string
	Column   string
	Reason   string
}

func (e *SchemaError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "missing column"
	}
	return fmt.Sprintf("schema error: relation %q column %q: %s", e.Relation, e.Column, reason)
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

func missingColumn(rel, col string) error {
	return &SchemaError{Relation: rel, Column: col, Reason: "missing column"}
}

// TypeError reports a cell that cannot be read as the column's declared type.
// Row is 1-based and counts data rows of the source; zero when unknown.
type TypeError struct {
	Relation string
	Column   string
	Row      int
	Value    string
	Cause    error
}

func (e *TypeError) Error() string {
	msg := fmt.Sprintf("type error: relation %q column %q", e.Relation, e.Column)
	if e.Row > 0 {
		msg += fmt.Sprintf(" row %d", e.Row)
	}
	msg += fmt.Sprintf(": cannot read %q as a number", e.Value)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TypeError) Is(target error) bool { return target == ErrType }
func (e *TypeError) Unwrap() error        { return e.Cause }

// KeyError reports a duplicated value in a column that must be unique.
type KeyError struct {
	Relation string
	Column   string
	Value    Value
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("key error: relation %q column %q: duplicate key %s", e.Relation, e.Column, e.Value.GoString())
}

func (e *KeyError) Is(target error) bool { return target == ErrKey }
