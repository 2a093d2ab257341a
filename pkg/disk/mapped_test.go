package disk_test

import (
	"bytes"
	"testing"

	"github.com/downfa11-org/logseg/pkg/disk"
	"github.com/downfa11-org/logseg/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappedSegmentMatchesFileView(t *testing.T) {
	s, path := newSegment(t, disk.Options{})
	appendFrames(t, s, exampleFrames...)
	require.NoError(t, s.Flush())

	m, err := disk.OpenMapped(path, 0)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, path, m.Path())
	assert.Equal(t, int64(42), m.SizeInBytes())
	assert.Equal(t, exampleFrames, collect(t, m.Iterator(100)))

	pos, found, err := m.SearchFor(1, 0)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.OffsetPosition{Offset: 1, Position: 13}, pos)

	_, found, err = m.SearchFor(3, 0)
	require.NoError(t, err)
	assert.False(t, found)

	got, err := m.ReadInto(make([]byte, 64), 27)
	require.NoError(t, err)
	want, err := s.ReadInto(make([]byte, 64), 27)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var buf bytes.Buffer
	n, err := m.WriteTo(&buf, 13, 14)
	require.NoError(t, err)
	assert.Equal(t, int64(14), n)
	assert.Equal(t, segmentBytes(t, path)[13:27], buf.Bytes())
}

func TestMappedSegmentEmptyAndInvalid(t *testing.T) {
	_, path := newSegment(t, disk.Options{})

	m, err := disk.OpenMapped(path, 0)
	require.NoError(t, err)
	defer m.Close()

	assert.Zero(t, m.SizeInBytes())
	assert.Empty(t, collect(t, m.Iterator(100)))

	_, err = m.ReadInto(make([]byte, 4), -1)
	assert.ErrorIs(t, err, disk.ErrInvalidArgument)
	_, err = m.WriteTo(&bytes.Buffer{}, 1, 1)
	assert.ErrorIs(t, err, disk.ErrInvalidArgument)

	_, err = disk.OpenMapped(path, -1)
	assert.ErrorIs(t, err, disk.ErrInvalidArgument)
}
