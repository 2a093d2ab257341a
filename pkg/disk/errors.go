package disk

import "errors"

var (
	// ErrInvalidArgument covers negative positions or sizes and out of range truncation targets.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCorruptRecord means a frame declared a size below the payload minimum while scanning.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrRecordTooLarge means a frame declared a payload larger than the caller's limit.
	ErrRecordTooLarge = errors.New("record exceeds max record size")

	// ErrStorageChanged means the file shrank below the cached size.
	ErrStorageChanged = errors.New("underlying storage changed")

	// ErrClosed is returned by operations on a closed message set.
	ErrClosed = errors.New("message set is closed")

	// ErrSliceReadOnly is returned when a slice is asked to mutate the file.
	ErrSliceReadOnly = errors.New("slice views are read-only")

	// ErrReadOnly is returned when a root opened without write access is asked to mutate the file.
	ErrReadOnly = errors.New("message set opened read-only")
)
