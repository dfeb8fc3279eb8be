package equity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoPeers marks an analysis where no peer matched the position title.
	// It is a displayable outcome, not a failure.
	ErrNoPeers = errors.New("no comparable peers")

	ErrInvalidCandidateRate = errors.New("candidate rate must be a non-negative number")
	ErrUnknownPolicy        = errors.New("unknown equity placement policy")
	ErrInvalidPlacement     = errors.New("invalid equity placement")
)

// SchemaError reports required peer table columns that are absent.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("peer table is missing required columns: %s", strings.Join(e.Missing, ", "))
}

// RowError describes a single peer row that was rejected.
type RowError struct {
	// Row is the 1-based position of the record in the input.
	Row    int
	Column string
	Value  string
	Err    error
}

func (e RowError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("row %d: %s: %v", e.Row, e.Column, e.Err)
	}
	return fmt.Sprintf("row %d: %s %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}
