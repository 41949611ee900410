package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoCatalog is returned when a store is used before any catalog was loaded.
var ErrNoCatalog = errors.New("no catalog loaded")

// LoadError means a catalog could not be accepted as a whole.
type LoadError struct {
	Source  string
	Reason  string
	Details []string
	Err     error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("catalog load error")
	if e.Source != "" {
		fmt.Fprintf(&b, " (%s)", e.Source)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if len(e.Details) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Details, "; "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// DataError is a malformed criterion block of a single program. It never
// fails a load; the evaluator reports it as a failing criterion instead.
type DataError struct {
	Program   string
	Criterion string
	Reason    string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("program %q: %s: %s", e.Program, e.Criterion, e.Reason)
}
