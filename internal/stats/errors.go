package stats

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyColumn is returned when a column has no valid values after missing-value filtering.
	ErrEmptyColumn = errors.New("column has no valid values")
	// ErrUnparsable marks a non-missing field that is not a finite number.
	ErrUnparsable = errors.New("unparsable numeric value")
	// ErrInsufficientRows is matched by *InsufficientRowsError.
	ErrInsufficientRows = errors.New("insufficient rows")
	// ErrConstantColumn is matched by *ConstantColumnError.
	ErrConstantColumn = errors.New("constant column")
	ErrNoColumns      = errors.New("no numeric columns")
	ErrRaggedRow      = errors.New("row width mismatch")
	ErrNonFinite      = errors.New("non-finite moment")
)

// InsufficientRowsError reports how many valid rows reached the correlation builder.
type InsufficientRowsError struct {
	Rows int
}

func (e *InsufficientRowsError) Error() string {
	return fmt.Sprintf("insufficient rows: %d valid rows, need at least 2", e.Rows)
}

func (e *InsufficientRowsError) Is(target error) bool { return target == ErrInsufficientRows }

// ConstantColumnError is the division-by-zero condition of the correlation builder:
// the named column has a sample standard deviation of exactly 0.
type ConstantColumnError struct {
	Column string
}

func (e *ConstantColumnError) Error() string {
	return fmt.Sprintf("column %q has zero standard deviation (division by zero)", e.Column)
}

func (e *ConstantColumnError) Is(target error) bool { return target == ErrConstantColumn }
