package types

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Payload layout written inside a frame:
//
//	checksum(8) | magic(1) | attributes(1) | keyLen(4) | key | valueLen(4) | value
//
// keyLen is -1 for a nil key. The checksum covers everything after itself.
const (
	MessageMagic byte = 1

	checksumLength   = 8
	magicLength      = 1
	attributesLength = 1
	keySizeLength    = 4
	valueSizeLength  = 4

	// MessageHeaderSize is the smallest payload that can hold a message.
	MessageHeaderSize = checksumLength + magicLength + attributesLength + keySizeLength + valueSizeLength
)

var (
	ErrMessageTooShort = errors.New("message shorter than header")
	ErrInvalidChecksum = errors.New("message checksum mismatch")
	ErrInvalidMagic    = errors.New("unknown message magic")
)

// Message represents a single message
type Message struct {
	Offset     int64
	Key        []byte
	Value      []byte
	Attributes byte
}

func (m Message) String() string {
	return fmt.Sprintf("offset=%d key=%q value=%q", m.Offset, m.Key, m.Value)
}

// EncodedSize is the payload length EncodeMessage produces for m.
func (m Message) EncodedSize() int {
	return MessageHeaderSize + len(m.Key) + len(m.Value)
}

// EncodeMessage serializes key and value into a frame payload. The offset is
// not part of the payload; it travels in the frame header.
func EncodeMessage(m Message) []byte {
	data := make([]byte, m.EncodedSize())
	pos := checksumLength
	data[pos] = MessageMagic
	pos++
	data[pos] = m.Attributes
	pos++

	if m.Key == nil {
		binary.BigEndian.PutUint32(data[pos:], uint32(0xFFFFFFFF))
	} else {
		binary.BigEndian.PutUint32(data[pos:], uint32(len(m.Key)))
	}
	pos += keySizeLength
	pos += copy(data[pos:], m.Key)

	binary.BigEndian.PutUint32(data[pos:], uint32(len(m.Value)))
	pos += valueSizeLength
	copy(data[pos:], m.Value)

	binary.BigEndian.PutUint64(data[:checksumLength], xxhash.Sum64(data[checksumLength:]))
	return data
}

// DecodeMessage parses a frame payload produced by EncodeMessage.
func DecodeMessage(offset int64, data []byte) (Message, error) {
	if len(data) < MessageHeaderSize {
		return Message{}, fmt.Errorf("%w: %d < %d", ErrMessageTooShort, len(data), MessageHeaderSize)
	}

	want := binary.BigEndian.Uint64(data[:checksumLength])
	if got := xxhash.Sum64(data[checksumLength:]); got != want {
		return Message{}, fmt.Errorf("%w at offset %d: stored %x, computed %x", ErrInvalidChecksum, offset, want, got)
	}

	pos := checksumLength
	if data[pos] != MessageMagic {
		return Message{}, fmt.Errorf("%w: %d", ErrInvalidMagic, data[pos])
	}
	pos++
	m := Message{Offset: offset, Attributes: data[pos]}
	pos++

	keyLen := int32(binary.BigEndian.Uint32(data[pos:]))
	pos += keySizeLength
	if keyLen >= 0 {
		if pos+int(keyLen)+valueSizeLength > len(data) {
			return Message{}, fmt.Errorf("invalid key length %d at offset %d", keyLen, offset)
		}
		m.Key = data[pos : pos+int(keyLen)]
		pos += int(keyLen)
	}

	valueLen := binary.BigEndian.Uint32(data[pos:])
	pos += valueSizeLength
	if pos+int(valueLen) != len(data) {
		return Message{}, fmt.Errorf("invalid value length %d at offset %d", valueLen, offset)
	}
	m.Value = data[pos:]
	return m, nil
}
