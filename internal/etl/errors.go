package etl

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from an input header. It is
// fatal: the run aborts before any row processing, so nothing is loaded.
type SchemaError struct {
	Source  string   // file or URL the header came from
	Missing []string // canonical column names, in contract order
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
}

// ParseError describes one row-local validation failure: the field that
// failed, the offending value, and the cause. Rows carrying one are excluded
// and counted, never fatal.
type ParseError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("field %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("field %s=%q: %s", e.Field, e.Value, e.Reason)
}

// SinkError wraps a warehouse failure with the load stage that hit it. The
// failing transaction rolls back; stages committed earlier stay committed.
type SinkError struct {
	Stage string // "open warehouse", "load merchants", "load facts"
	Err   error
}

func (e *SinkError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *SinkError) Unwrap() error { return e.Err }
