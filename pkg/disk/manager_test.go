package disk_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/downfa11-org/logseg/pkg/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerSharesRoots(t *testing.T) {
	dir := t.TempDir()
	m := disk.NewManager(filepath.Join(dir, "segments"), disk.Options{Writable: true})

	a, err := m.Get("0.log")
	require.NoError(t, err)
	b, err := m.Get("0.log")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, filepath.Join(dir, "segments", "0.log"), a.Path())

	appendFrames(t, a, exampleFrames...)
	assert.Equal(t, int64(42), b.SizeInBytes())

	require.NoError(t, m.CloseAll())
	_, _, err = a.SearchFor(0, 0)
	assert.ErrorIs(t, err, disk.ErrClosed)

	reopened, err := m.Get("0.log")
	require.NoError(t, err)
	assert.NotSame(t, a, reopened)
	assert.Equal(t, int64(42), reopened.SizeInBytes())

	assert.True(t, m.Remove("0.log"))
	_, err = os.Stat(filepath.Join(dir, "segments", "0.log"))
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, m.CloseAll())
}

func TestManagerReadOnlyMissingFile(t *testing.T) {
	m := disk.NewManager(t.TempDir(), disk.Options{})
	_, err := m.Get("missing.log")
	assert.Error(t, err)

	abs := filepath.Join(t.TempDir(), "abs.log")
	assert.Equal(t, abs, m.Path(abs))
}
