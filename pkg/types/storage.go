package types

import "io"

// MessageSet is the read side shared by file-backed and mapped segments.
type MessageSet interface {
	SizeInBytes() int64
	SearchFor(targetOffset, startingPosition int64) (OffsetPosition, bool, error)
	ReadInto(buf []byte, position int64) ([]byte, error)
	WriteTo(dst io.Writer, position, maxBytes int64) (int64, error)
}
