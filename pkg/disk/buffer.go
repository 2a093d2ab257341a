package disk

import (
	"io"

	"github.com/downfa11-org/logseg/pkg/types"
)

// FrameBuffer is an in-memory batch of already framed records, ready to be
// handed to Append. Writing it out does not consume it.
type FrameBuffer struct {
	data  []byte
	count int
}

func NewFrameBuffer(capacity int) *FrameBuffer {
	return &FrameBuffer{data: make([]byte, 0, capacity)}
}

// Add frames payload under offset.
func (b *FrameBuffer) Add(offset int64, payload []byte) error {
	data, err := AppendFrame(b.data, offset, payload)
	if err != nil {
		return err
	}
	b.data = data
	b.count++
	return nil
}

// AddMessage encodes m with the message codec and frames it under m.Offset.
func (b *FrameBuffer) AddMessage(m types.Message) error {
	return b.Add(m.Offset, types.EncodeMessage(m))
}

// Len is the number of framed bytes held.
func (b *FrameBuffer) Len() int { return len(b.data) }

// Count is the number of frames held.
func (b *FrameBuffer) Count() int { return b.count }

func (b *FrameBuffer) Bytes() []byte { return b.data }

func (b *FrameBuffer) Reset() {
	b.data = b.data[:0]
	b.count = 0
}

// WriteTo implements io.WriterTo.
func (b *FrameBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.data)
	if err == nil && n < len(b.data) {
		err = io.ErrShortWrite
	}
	return int64(n), err
}
