//go:build linux
// +build linux

package disk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/downfa11-org/logseg/pkg/metrics"
	"github.com/downfa11-org/logseg/util"
	"golang.org/x/sys/unix"
)

// maxSendfileChunk keeps each sendfile call under the kernel's per-call cap.
const maxSendfileChunk = 1 << 30

func adviseSequential(f *os.File) {
	// Linux: sequential access hint
	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL); err != nil {
		util.Debug("fadvise %s: %v", f.Name(), err)
	}
}

func preallocate(f *os.File, size int64) error {
	if err := unix.Fallocate(int(f.Fd()), 0, 0, size); err != nil {
		if errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.ENOSYS) {
			return f.Truncate(size)
		}
		return err
	}
	return nil
}

// transfer moves count bytes at offset to dst, in kernel space when dst
// hands out a descriptor. A full socket parks on the runtime poller until
// it drains, so the count is short only on error.
func (s *FileMessageSet) transfer(dst io.Writer, offset, count int64) (int64, error) {
	sc, ok := dst.(syscall.Conn)
	if !ok {
		return s.copyRange(dst, offset, count)
	}
	rawConn, err := sc.SyscallConn()
	if err != nil {
		return s.copyRange(dst, offset, count)
	}

	inFd := int(s.seg.file.Fd())
	pos := offset
	var written int64
	var sendErr error
	err = rawConn.Write(func(fd uintptr) bool {
		for written < count {
			n, err := unix.Sendfile(int(fd), inFd, &pos, int(min(count-written, maxSendfileChunk)))
			if n > 0 {
				written += int64(n)
			}
			switch {
			case err == nil:
				if n == 0 {
					return true
				}
			case errors.Is(err, unix.EINTR):
			case errors.Is(err, unix.EAGAIN):
				return false // wait until dst is writable
			default:
				sendErr = err
				return true
			}
		}
		return true
	})
	if sendErr == nil && err != nil {
		sendErr = err
	}

	if sendErr != nil && written == 0 && unsupportedSendfile(sendErr) {
		util.Debug("sendfile unavailable for %s (%v); copying", s.seg.name(), sendErr)
		return s.copyRange(dst, offset, count)
	}
	metrics.SegmentBytesTransferred.WithLabelValues("sendfile").Add(float64(written))
	if sendErr != nil {
		return written, fmt.Errorf("sendfile from %s: %w", s.seg.name(), sendErr)
	}
	return written, nil
}

func unsupportedSendfile(err error) bool {
	return errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EOPNOTSUPP)
}
