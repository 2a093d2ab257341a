package disk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// On-disk frame: offset(8, big endian) | size(4, big endian) | payload(size).
const (
	OffsetLength = 8
	SizeLength   = 4
	LogOverhead  = OffsetLength + SizeLength
)

// frameHeader is the decoded fixed part of a frame.
type frameHeader struct {
	offset int64
	size   int32
}

func decodeHeader(b []byte) frameHeader {
	return frameHeader{
		offset: int64(binary.BigEndian.Uint64(b[:OffsetLength])),
		size:   int32(binary.BigEndian.Uint32(b[OffsetLength:LogOverhead])),
	}
}

// PutHeader writes the frame header for a payload of payloadSize bytes into b.
func PutHeader(b []byte, offset int64, payloadSize int32) {
	binary.BigEndian.PutUint64(b[:OffsetLength], uint64(offset))
	binary.BigEndian.PutUint32(b[OffsetLength:LogOverhead], uint32(payloadSize))
}

// AppendFrame appends one encoded frame to dst.
func AppendFrame(dst []byte, offset int64, payload []byte) ([]byte, error) {
	if len(payload) > math.MaxInt32 {
		return dst, fmt.Errorf("%w: payload of %d bytes does not fit a frame", ErrInvalidArgument, len(payload))
	}
	var header [LogOverhead]byte
	PutHeader(header[:], offset, int32(len(payload)))
	dst = append(dst, header[:]...)
	return append(dst, payload...), nil
}

// readFullAt fills buf from r at off without crossing limit. It reports
// false with a nil error when fewer bytes are available; only real I/O
// failures come back as errors.
func readFullAt(r io.ReaderAt, buf []byte, off, limit int64) (bool, error) {
	if off+int64(len(buf)) > limit {
		return false, nil
	}
	n, err := r.ReadAt(buf, off)
	if n == len(buf) {
		return true, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return false, nil
	}
	return false, err
}
