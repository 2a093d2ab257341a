package disk

import (
	"fmt"
	"io"

	"github.com/downfa11-org/logseg/pkg/metrics"
	"github.com/downfa11-org/logseg/pkg/types"
)

// Frame is one record yielded by shallow iteration. Position is relative to
// the start of the iterated view.
type Frame struct {
	Offset   int64
	Position int64
	Payload  []byte
}

// Size is the on-disk footprint of the frame.
func (f Frame) Size() int64 {
	return LogOverhead + int64(len(f.Payload))
}

type stepResult int

const (
	stepEmit stepResult = iota
	stepEnd
	stepFail
)

// Iterator walks frames one at a time without decoding payloads.
//
// Next returns false either at the end of valid data or on failure; Err
// tells the two apart. A trailing partial frame ends the sequence quietly.
// An iterator is single-pass and owns its cursor, so several may run over
// the same view at once.
type Iterator struct {
	r              io.ReaderAt
	base           int64
	cursor         int64
	limit          func() int64
	maxRecordSize  int32
	minPayloadSize int32

	header [LogOverhead]byte
	frame  Frame
	err    error
	done   bool
}

func newIterator(r io.ReaderAt, base int64, limit func() int64, maxRecordSize, minPayloadSize int32) *Iterator {
	return &Iterator{
		r:              r,
		base:           base,
		cursor:         base,
		limit:          limit,
		maxRecordSize:  maxRecordSize,
		minPayloadSize: minPayloadSize,
	}
}

// Next advances to the next frame.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	switch it.step() {
	case stepEmit:
		return true
	case stepFail:
		metrics.SegmentIterationFailures.Inc()
	}
	it.done = true
	it.frame = Frame{}
	return false
}

func (it *Iterator) step() stepResult {
	limit := it.limit()
	if it.cursor >= limit {
		return stepEnd
	}

	ok, err := readFullAt(it.r, it.header[:], it.cursor, limit)
	if err != nil {
		it.err = fmt.Errorf("read frame header at %d: %w", it.cursor-it.base, err)
		return stepFail
	}
	if !ok {
		return stepEnd
	}

	h := decodeHeader(it.header[:])
	if h.size < it.minPayloadSize || h.size < 0 {
		return stepEnd
	}
	if h.size > it.maxRecordSize {
		it.err = fmt.Errorf("%w: frame at %d declares %d bytes, limit is %d",
			ErrRecordTooLarge, it.cursor-it.base, h.size, it.maxRecordSize)
		return stepFail
	}

	payload := make([]byte, h.size)
	ok, err = readFullAt(it.r, payload, it.cursor+LogOverhead, limit)
	if err != nil {
		it.err = fmt.Errorf("read frame payload at %d: %w", it.cursor-it.base, err)
		return stepFail
	}
	if !ok {
		return stepEnd
	}

	it.frame = Frame{Offset: h.offset, Position: it.cursor - it.base, Payload: payload}
	it.cursor += LogOverhead + int64(h.size)
	return stepEmit
}

// Frame returns the frame produced by the last successful Next.
func (it *Iterator) Frame() Frame {
	return it.frame
}

// Err returns the failure that stopped iteration, or nil at a clean end.
func (it *Iterator) Err() error {
	return it.err
}

// ValidBytes is the number of bytes covered by the frames consumed so far.
// After a clean end it marks where the last complete frame stops.
func (it *Iterator) ValidBytes() int64 {
	return it.cursor - it.base
}

// searchFor scans forward from startingPosition (relative to base) for the
// first frame whose offset is at least targetOffset.
func searchFor(r io.ReaderAt, base, size, targetOffset, startingPosition int64, minPayloadSize int32) (pos types.OffsetPosition, found bool, err error) {
	if startingPosition < 0 {
		return pos, false, fmt.Errorf("%w: starting position %d is negative", ErrInvalidArgument, startingPosition)
	}

	var header [LogOverhead]byte
	position := startingPosition
	scanned := 0
	defer func() { metrics.SearchScannedFrames.Observe(float64(scanned)) }()

	for position+LogOverhead <= size {
		ok, err := readFullAt(r, header[:], base+position, base+size)
		if err != nil {
			return pos, false, fmt.Errorf("read frame header at %d: %w", position, err)
		}
		if !ok {
			return pos, false, nil
		}
		scanned++

		h := decodeHeader(header[:])
		if h.offset >= targetOffset {
			return types.OffsetPosition{Offset: h.offset, Position: position}, true, nil
		}
		if h.size < minPayloadSize || h.size < 0 {
			metrics.SegmentCorruptRecords.Inc()
			return pos, false, fmt.Errorf("%w: frame at %d declares %d bytes, minimum is %d",
				ErrCorruptRecord, position, h.size, minPayloadSize)
		}
		position += LogOverhead + int64(h.size)
	}
	return pos, false, nil
}
