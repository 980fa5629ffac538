package mmapio

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the library can produce.
// Match with errors.Is; value-carrying kinds expose their context through
// RangeError and AlignmentError.
var (
	// ErrInvalidMode reports an operation disallowed in the current access mode.
	ErrInvalidMode = errors.New("mmapio: invalid access mode")

	// ErrOutOfBounds reports a range exceeding the cached file length.
	ErrOutOfBounds = errors.New("mmapio: range out of bounds")

	// ErrFlushFailed reports that the OS refused or failed to synchronize.
	ErrFlushFailed = errors.New("mmapio: flush failed")

	// ErrResizeFailed reports a zero size request or a failed truncate/remap.
	ErrResizeFailed = errors.New("mmapio: resize failed")

	// ErrAdviceFailed reports a rejected access-pattern hint.
	ErrAdviceFailed = errors.New("mmapio: advice failed")

	// ErrLockFailed reports a failed page pin, typically for privilege reasons.
	ErrLockFailed = errors.New("mmapio: lock failed")

	// ErrUnlockFailed reports a failed page unpin.
	ErrUnlockFailed = errors.New("mmapio: unlock failed")

	// ErrMisaligned reports an atomic view request at an unaligned offset.
	ErrMisaligned = errors.New("mmapio: misaligned atomic access")

	// ErrWatchFailed reports a watcher that could not be started.
	ErrWatchFailed = errors.New("mmapio: watch failed")
)

// Error wraps an underlying OS or filesystem error with the operation that
// produced it, so callers can distinguish library-semantic failures from
// I/O conditions.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mmapio: %s: %v", e.Op, e.Err)
	}
	return "mmapio: " + e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RangeError carries the requested range and the cached length that rejected
// it. Matches ErrOutOfBounds under errors.Is.
type RangeError struct {
	Offset uint64
	Len    uint64
	Total  uint64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("mmapio: range out of bounds: offset=%d, len=%d, total=%d", e.Offset, e.Len, e.Total)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// AlignmentError carries the alignment an atomic view requires and the offset
// that violated it. Matches ErrMisaligned under errors.Is.
type AlignmentError struct {
	Required uint64
	Offset   uint64
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("mmapio: atomic alignment error: required=%d, offset=%d", e.Required, e.Offset)
}

func (e *AlignmentError) Is(target error) bool {
	return target == ErrMisaligned
}

// ModeError carries the reason an operation is rejected in the current mode.
// Matches ErrInvalidMode under errors.Is.
type ModeError struct {
	Reason string
}

func (e *ModeError) Error() string {
	return "mmapio: invalid access mode: " + e.Reason
}

func (e *ModeError) Is(target error) bool {
	return target == ErrInvalidMode
}

// opError wraps an OS-level error in the I/O kind, preserving it verbatim.
func opError(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// kindError attaches a sentinel kind to an underlying cause so both
// errors.Is(err, kind) and the OS detail survive.
func kindError(kind error, cause error) error {
	if cause == nil {
		return kind
	}
	return fmt.Errorf("%w: %w", kind, cause)
}
