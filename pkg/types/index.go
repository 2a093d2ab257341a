package types

// OffsetPosition pairs a logical offset with the byte position of the frame
// carrying it, relative to the start of the scanned view.
type OffsetPosition struct {
	Offset   int64
	Position int64
}
