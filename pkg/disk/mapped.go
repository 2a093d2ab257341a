package disk

import (
	"errors"
	"fmt"
	"io"

	"github.com/downfa11-org/logseg/pkg/types"
	"golang.org/x/exp/mmap"
)

// MappedSegment is a read-only, memory-mapped view of a whole segment file.
// Its size is fixed when mapped, so it suits offline inspection of sealed
// segments rather than files still being appended to.
type MappedSegment struct {
	path           string
	reader         *mmap.ReaderAt
	minPayloadSize int32
}

var _ types.MessageSet = (*MappedSegment)(nil)

func OpenMapped(path string, minPayloadSize int32) (*MappedSegment, error) {
	if minPayloadSize < 0 {
		return nil, fmt.Errorf("%w: min payload size %d is negative", ErrInvalidArgument, minPayloadSize)
	}
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap open failed: %w", err)
	}
	return &MappedSegment{path: path, reader: reader, minPayloadSize: minPayloadSize}, nil
}

func (m *MappedSegment) Path() string { return m.path }

func (m *MappedSegment) SizeInBytes() int64 {
	return int64(m.reader.Len())
}

func (m *MappedSegment) Iterator(maxRecordSize int32) *Iterator {
	return newIterator(m.reader, 0, m.SizeInBytes, maxRecordSize, m.minPayloadSize)
}

func (m *MappedSegment) SearchFor(targetOffset, startingPosition int64) (types.OffsetPosition, bool, error) {
	return searchFor(m.reader, 0, m.SizeInBytes(), targetOffset, startingPosition, m.minPayloadSize)
}

func (m *MappedSegment) ReadInto(buf []byte, position int64) ([]byte, error) {
	if position < 0 {
		return nil, fmt.Errorf("%w: read position %d is negative", ErrInvalidArgument, position)
	}
	if position >= m.SizeInBytes() {
		return buf[:0], nil
	}
	n, err := m.reader.ReadAt(buf, position)
	if err != nil && !errors.Is(err, io.EOF) {
		return buf[:n], err
	}
	return buf[:n], nil
}

// WriteTo copies out of the mapping; there is no descriptor to sendfile from.
func (m *MappedSegment) WriteTo(dst io.Writer, position, maxBytes int64) (int64, error) {
	size := m.SizeInBytes()
	if position < 0 || maxBytes < 0 || position > size {
		return 0, fmt.Errorf("%w: transfer position %d, max bytes %d, size %d", ErrInvalidArgument, position, maxBytes, size)
	}
	return io.Copy(dst, io.NewSectionReader(m.reader, position, min(maxBytes, size-position)))
}

func (m *MappedSegment) Close() error {
	return m.reader.Close()
}
