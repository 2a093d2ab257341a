//go:build !linux
// +build !linux

package disk

import (
	"io"
	"os"
)

func adviseSequential(f *os.File) {}

func preallocate(f *os.File, size int64) error {
	return f.Truncate(size)
}

func (s *FileMessageSet) transfer(dst io.Writer, offset, count int64) (int64, error) {
	return s.copyRange(dst, offset, count)
}
