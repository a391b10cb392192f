package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is returned by index-based operations outside current bounds.
	ErrOutOfRange = errors.New("index out of range")

	// ErrInvalidInput is returned when strict validation rejects an entity.
	ErrInvalidInput = errors.New("invalid input")
)

// RangeError reports an index that does not address an existing element.
type RangeError struct {
	Op    string
	Index int
	Len   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0, %d)", e.Op, e.Index, e.Len)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

func checkIndex(op string, index, length int) error {
	if index < 0 || index >= length {
		return &RangeError{Op: op, Index: index, Len: length}
	}
	return nil
}
