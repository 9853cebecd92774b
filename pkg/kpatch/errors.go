package kpatch

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMagic      = errors.New("invalid kpatch magic")
	ErrCorruptFile       = errors.New("corrupt kpatch file")
	ErrUnsupportedRelocs = errors.New("kpatch relocations not supported")
	ErrWrite             = errors.New("kpatch write error")
)

// WriteError reports a failed or short container write. Written is the number
// of bytes the sink accepted before the failure.
type WriteError struct {
	Written int64
	Want    int64
	Err     error
}

func (e *WriteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("write error: wrote %d of %d bytes", e.Written, e.Want)
	}
	return fmt.Sprintf("write error: wrote %d of %d bytes: %v", e.Written, e.Want, e.Err)
}

func (e *WriteError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrWrite}
	}
	return []error{ErrWrite, e.Err}
}
