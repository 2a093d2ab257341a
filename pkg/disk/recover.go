package disk

import (
	"errors"
	"fmt"
	"io"
)

const zeroScanChunk = 32 << 10

// paddingStart finds where zero padding left behind by an unclean close of a
// preallocated segment begins. It returns size when the file does not end in
// padding. Only a run of zeros that reaches the end of the file at a frame
// boundary counts; anything else is left for the readers to judge.
func paddingStart(r io.ReaderAt, size int64, minPayloadSize int32) (int64, error) {
	if size == 0 {
		return 0, nil
	}

	var last [1]byte
	if _, err := r.ReadAt(last[:], size-1); err != nil && !errors.Is(err, io.EOF) {
		return size, fmt.Errorf("read segment tail: %w", err)
	}
	if last[0] != 0 {
		return size, nil
	}

	var header [LogOverhead]byte
	pos := int64(0)
	for {
		ok, err := readFullAt(r, header[:], pos, size)
		if err != nil {
			return size, fmt.Errorf("read frame header at %d: %w", pos, err)
		}
		if !ok || allZero(header[:]) {
			zero, err := zeroFrom(r, pos, size)
			if err != nil {
				return size, err
			}
			if zero {
				return pos, nil
			}
			if !ok {
				return size, nil
			}
		}

		h := decodeHeader(header[:])
		if h.size < minPayloadSize || h.size < 0 {
			return size, nil
		}
		next := pos + LogOverhead + int64(h.size)
		if next > size {
			return size, nil
		}
		pos = next
	}
}

// zeroFrom reports whether every byte in [off, end) is zero.
func zeroFrom(r io.ReaderAt, off, end int64) (bool, error) {
	buf := make([]byte, min(end-off, zeroScanChunk))
	for off < end {
		chunk := buf[:min(end-off, int64(len(buf)))]
		n, err := r.ReadAt(chunk, off)
		if !allZero(chunk[:n]) {
			return false, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("read segment at %d: %w", off, err)
		}
		if n == 0 {
			return true, nil
		}
		off += int64(n)
	}
	return true, nil
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
