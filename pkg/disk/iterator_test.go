package disk_test

import (
	"os"
	"sync"
	"testing"

	"github.com/downfa11-org/logseg/pkg/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendRaw(t *testing.T, path string, raw []byte) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.Write(raw)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestIteratorOversizedRecordFails(t *testing.T) {
	s, _ := newSegment(t, disk.Options{})
	appendFrames(t, s, testFrame{0, "small"}, testFrame{1, string(make([]byte, 101))})

	it := s.Iterator(100)
	require.True(t, it.Next())
	assert.Equal(t, int64(0), it.Frame().Offset)

	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), disk.ErrRecordTooLarge)
	assert.False(t, it.Next(), "a failed iterator stays done")

	// exactly at the limit is fine
	exact, _ := newSegment(t, disk.Options{})
	appendFrames(t, exact, testFrame{0, string(make([]byte, 100))})
	assert.Len(t, collect(t, exact.Iterator(100)), 1)
}

func TestIteratorPartialTail(t *testing.T) {
	tests := []struct {
		name string
		tail []byte
	}{
		{"partial header", []byte{0, 0, 0, 0, 7}},
		{"header without payload", func() []byte {
			b := make([]byte, disk.LogOverhead)
			disk.PutHeader(b, 3, 10)
			return append(b, 'x', 'y')
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := t.TempDir() + "/tail.log"
			s, err := disk.Create(path, disk.Options{})
			require.NoError(t, err)
			appendFrames(t, s, exampleFrames...)
			require.NoError(t, s.Close())
			appendRaw(t, path, tt.tail)

			reopened, err := disk.OpenExisting(path, disk.Options{})
			require.NoError(t, err)
			defer reopened.Close()
			require.Equal(t, int64(42+len(tt.tail)), reopened.SizeInBytes())

			it := reopened.Iterator(100)
			assert.Equal(t, exampleFrames, collect(t, it))
			assert.Equal(t, int64(42), it.ValidBytes())
		})
	}
}

func TestIteratorStopsBelowMinimumSize(t *testing.T) {
	s, _ := newSegment(t, disk.Options{MinPayloadSize: 2})
	appendFrames(t, s, testFrame{0, "aa"}, testFrame{1, "b"}, testFrame{2, "cc"})

	it := s.Iterator(100)
	assert.Equal(t, []testFrame{{0, "aa"}}, collect(t, it))
	assert.Equal(t, int64(14), it.ValidBytes())
}

func TestIteratorNegativeSizeEndsQuietly(t *testing.T) {
	s, path := newSegment(t, disk.Options{})
	appendFrames(t, s, exampleFrames[:1]...)

	bad := make([]byte, disk.LogOverhead)
	disk.PutHeader(bad, 1, -5)
	appendRaw(t, path, bad)

	reopened, err := disk.OpenExisting(path, disk.Options{})
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, exampleFrames[:1], collect(t, reopened.Iterator(100)))

	_, _, err = reopened.SearchFor(5, 0)
	assert.ErrorIs(t, err, disk.ErrCorruptRecord)
}

func TestIteratorsRunConcurrently(t *testing.T) {
	s, _ := newSegment(t, disk.Options{})
	var frames []testFrame
	for i := 0; i < 200; i++ {
		frames = append(frames, testFrame{int64(i), string(make([]byte, i%17))})
	}
	appendFrames(t, s, frames...)

	var wg sync.WaitGroup
	counts := make([]int, 8)
	for g := range counts {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			it := s.Iterator(1024)
			for it.Next() {
				if it.Frame().Offset != int64(counts[g]) {
					return
				}
				counts[g]++
			}
		}(g)
	}
	wg.Wait()

	for g, n := range counts {
		assert.Equal(t, len(frames), n, "iterator %d", g)
	}
}

func TestIteratorSeesRootAppends(t *testing.T) {
	s, _ := newSegment(t, disk.Options{})
	appendFrames(t, s, exampleFrames[0])

	it := s.Iterator(100)
	require.True(t, it.Next())
	assert.False(t, it.Next())
	require.NoError(t, it.Err())

	fresh := s.Iterator(100)
	appendFrames(t, s, exampleFrames[1:]...)
	assert.Equal(t, exampleFrames, collect(t, fresh))
}
