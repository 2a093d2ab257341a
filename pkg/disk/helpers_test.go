package disk_test

import (
	"path/filepath"
	"testing"

	"github.com/downfa11-org/logseg/pkg/disk"
	"github.com/stretchr/testify/require"
)

type testFrame struct {
	offset  int64
	payload string
}

var exampleFrames = []testFrame{
	{0, "a"},
	{1, "bb"},
	{2, "ccc"},
}

func newSegment(t *testing.T, opts disk.Options) (*disk.FileMessageSet, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "00000000000000000000.log")
	opts.Writable = true
	s, err := disk.Create(path, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func appendFrames(t *testing.T, s *disk.FileMessageSet, frames ...testFrame) int64 {
	t.Helper()
	buf := disk.NewFrameBuffer(0)
	for _, f := range frames {
		require.NoError(t, buf.Add(f.offset, []byte(f.payload)))
	}
	n, err := s.Append(buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	return n
}

func collect(t *testing.T, it *disk.Iterator) []testFrame {
	t.Helper()
	var out []testFrame
	for it.Next() {
		f := it.Frame()
		out = append(out, testFrame{f.Offset, string(f.Payload)})
	}
	require.NoError(t, it.Err())
	return out
}
