package disk

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/downfa11-org/logseg/pkg/metrics"
	"github.com/downfa11-org/logseg/pkg/types"
	"github.com/downfa11-org/logseg/util"
)

// unbounded marks a root view whose end follows the file.
const unbounded = math.MaxInt64

// Options configures how a root message set opens its file.
type Options struct {
	// Writable opens the file for append and truncate.
	Writable bool

	// MinPayloadSize is the smallest structurally valid payload. Frames that
	// declare less end iteration and fail a search. Zero accepts any size.
	MinPayloadSize int32

	// PreallocateSize extends a newly created file up front. The logical
	// size still starts at zero and Close trims the file back to it.
	PreallocateSize int64
}

// segmentFile is the open descriptor shared by a root view and every slice
// cut from it. Only the root closes it.
type segmentFile struct {
	file   *os.File
	path   atomic.Pointer[string]
	closed atomic.Bool
	slices atomic.Int32
}

func newSegmentFile(f *os.File, path string) *segmentFile {
	seg := &segmentFile{file: f}
	seg.path.Store(&path)
	return seg
}

// name is the current path; Rename may swap it while readers run.
func (f *segmentFile) name() string {
	return *f.path.Load()
}

// FileMessageSet is a window onto a segment file holding framed records.
//
// The root view owns the descriptor, tracks appends and may truncate. Slices
// share the descriptor with a frozen [start, end) range and never write.
// Nothing here is locked: callers keep a single writer per file and quiesce
// readers before truncating. Only the size counter and the path are atomic.
type FileMessageSet struct {
	seg            *segmentFile
	start          int64
	end            int64
	isSlice        bool
	writable       bool
	preallocated   bool
	minPayloadSize int32
	size           atomic.Int64
	released       atomic.Bool
}

var _ types.MessageSet = (*FileMessageSet)(nil)

// Open opens the segment at path as a root view, creating it when writable.
// The size is the current file length and appends continue at its end.
func Open(path string, opts Options) (*FileMessageSet, error) {
	flags := os.O_RDONLY
	if opts.Writable {
		flags = os.O_RDWR | os.O_CREATE
	}
	return openRoot(path, flags, opts, false)
}

// OpenExisting is Open for a file that must already exist.
func OpenExisting(path string, opts Options) (*FileMessageSet, error) {
	flags := os.O_RDONLY
	if opts.Writable {
		flags = os.O_RDWR
	}
	return openRoot(path, flags, opts, false)
}

// Create makes a new, empty, writable segment. It fails if path exists.
func Create(path string, opts Options) (*FileMessageSet, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create segment directory: %w", err)
	}
	opts.Writable = true
	return openRoot(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, opts, true)
}

func openRoot(path string, flags int, opts Options, fresh bool) (*FileMessageSet, error) {
	if opts.MinPayloadSize < 0 || opts.PreallocateSize < 0 {
		return nil, fmt.Errorf("%w: negative option (min payload %d, preallocate %d)",
			ErrInvalidArgument, opts.MinPayloadSize, opts.PreallocateSize)
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open segment %s: %w", path, err)
	}
	adviseSequential(f)

	s := &FileMessageSet{
		seg:            newSegmentFile(f, path),
		start:          0,
		end:            unbounded,
		writable:       opts.Writable,
		minPayloadSize: opts.MinPayloadSize,
	}

	if fresh && opts.PreallocateSize > 0 {
		if err := preallocate(f, opts.PreallocateSize); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return nil, fmt.Errorf("preallocate segment %s: %w", path, err)
		}
		s.preallocated = true
		// size stays 0; the write cursor is already at the start
	} else {
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("stat segment %s: %w", path, err)
		}
		size := info.Size()
		validEnd, err := paddingStart(f, size, opts.MinPayloadSize)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("scan segment %s: %w", path, err)
		}
		if validEnd < size {
			util.Warn("segment %s was not closed cleanly: ignoring %d bytes of zero padding after %d", path, size-validEnd, validEnd)
			size = validEnd
			s.preallocated = opts.Writable
		}
		s.size.Store(size)
		if opts.Writable {
			if _, err := f.Seek(size, io.SeekStart); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("seek segment %s: %w", path, err)
			}
		}
	}

	metrics.OpenSegments.Inc()
	util.Debug("opened segment %s (size=%d writable=%v)", path, s.SizeInBytes(), opts.Writable)
	return s, nil
}

// Slice returns a read-only view of maxSize bytes starting position bytes
// into s. The view is clamped to s's current size and never grows.
func (s *FileMessageSet) Slice(position, maxSize int64) (*FileMessageSet, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if position < 0 {
		return nil, fmt.Errorf("%w: slice position %d is negative", ErrInvalidArgument, position)
	}
	if maxSize < 0 {
		return nil, fmt.Errorf("%w: slice size %d is negative", ErrInvalidArgument, maxSize)
	}

	size := s.SizeInBytes()
	start := s.start + min(position, size)
	end := min(saturatingAdd(start, maxSize), s.start+size)

	v := &FileMessageSet{
		seg:            s.seg,
		start:          start,
		end:            end,
		isSlice:        true,
		minPayloadSize: s.minPayloadSize,
	}
	v.size.Store(end - start)
	s.seg.slices.Add(1)
	return v, nil
}

func saturatingAdd(a, b int64) int64 {
	if b > math.MaxInt64-a {
		return math.MaxInt64
	}
	return a + b
}

// SizeInBytes is the number of bytes the view covers.
func (s *FileMessageSet) SizeInBytes() int64 {
	return s.size.Load()
}

// Start is the absolute file position where the view begins.
func (s *FileMessageSet) Start() int64 { return s.start }

// End is the absolute file position where the view stops (exclusive).
func (s *FileMessageSet) End() int64 {
	if !s.isSlice {
		return s.start + s.SizeInBytes()
	}
	return s.end
}

func (s *FileMessageSet) IsSlice() bool { return s.isSlice }

func (s *FileMessageSet) Path() string { return s.seg.name() }

func (s *FileMessageSet) checkOpen() error {
	if s.released.Load() || s.seg.closed.Load() {
		return ErrClosed
	}
	return nil
}

func (s *FileMessageSet) checkMutable() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.isSlice {
		return ErrSliceReadOnly
	}
	if !s.writable {
		return ErrReadOnly
	}
	return nil
}

// limit is the absolute position readers must not cross.
func (s *FileMessageSet) limit() int64 {
	return s.End()
}

// Append writes the framed bytes held by src at the end of the file and
// grows the size by what was written, even when src also reports an error.
func (s *FileMessageSet) Append(src io.WriterTo) (int64, error) {
	if err := s.checkMutable(); err != nil {
		return 0, err
	}
	n, err := src.WriteTo(s.seg.file)
	if n > 0 {
		s.size.Add(n)
		metrics.SegmentBytesAppended.Add(float64(n))
	}
	if err != nil {
		return n, fmt.Errorf("append to %s after %d bytes: %w", s.seg.name(), n, err)
	}
	return n, nil
}

// SearchFor returns the first frame at or after startingPosition whose
// offset is at least targetOffset. The position is relative to the view.
func (s *FileMessageSet) SearchFor(targetOffset, startingPosition int64) (types.OffsetPosition, bool, error) {
	if err := s.checkOpen(); err != nil {
		return types.OffsetPosition{}, false, err
	}
	return searchFor(s.seg.file, s.start, s.SizeInBytes(), targetOffset, startingPosition, s.minPayloadSize)
}

// Iterator returns a fresh shallow iterator over the view. Frames larger
// than maxRecordSize fail the iteration with ErrRecordTooLarge.
func (s *FileMessageSet) Iterator(maxRecordSize int32) *Iterator {
	it := newIterator(s.seg.file, s.start, s.limit, maxRecordSize, s.minPayloadSize)
	if err := s.checkOpen(); err != nil {
		it.err = err
		it.done = true
	}
	return it
}

// ReadInto fills buf from position (relative to the view) and returns the
// filled prefix. Reading stops at the end of the view.
func (s *FileMessageSet) ReadInto(buf []byte, position int64) ([]byte, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if position < 0 {
		return nil, fmt.Errorf("%w: read position %d is negative", ErrInvalidArgument, position)
	}

	off := s.start + position
	avail := s.limit() - off
	if avail <= 0 {
		return buf[:0], nil
	}
	if int64(len(buf)) > avail {
		buf = buf[:avail]
	}

	n, err := s.seg.file.ReadAt(buf, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return buf[:n], fmt.Errorf("read %s at %d: %w", s.seg.name(), off, err)
	}
	return buf[:n], nil
}

// WriteTo copies up to maxBytes of the view, starting at position, to dst.
// It fails with ErrStorageChanged when the file has shrunk below the cached
// size. Transfers go through sendfile(2) when dst exposes a descriptor; a
// short count from a non-blocking dst is not an error.
func (s *FileMessageSet) WriteTo(dst io.Writer, position, maxBytes int64) (int64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if position < 0 || maxBytes < 0 {
		return 0, fmt.Errorf("%w: transfer position %d, max bytes %d", ErrInvalidArgument, position, maxBytes)
	}

	info, err := s.seg.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", s.seg.name(), err)
	}
	cached := s.SizeInBytes()
	current := min(info.Size(), s.end) - s.start
	if current < cached {
		metrics.SegmentStorageChanged.Inc()
		util.Error("segment %s shrank under a reader: cached size %d, file now holds %d", s.seg.name(), cached, current)
		return 0, fmt.Errorf("%w: %s size of %d bytes is smaller than the expected %d",
			ErrStorageChanged, s.seg.name(), current, cached)
	}
	if position > cached {
		return 0, fmt.Errorf("%w: transfer position %d beyond size %d", ErrInvalidArgument, position, cached)
	}

	count := min(maxBytes, cached-position)
	if count == 0 {
		return 0, nil
	}
	return s.transfer(dst, s.start+position, count)
}

// copyRange is the portable transfer path.
func (s *FileMessageSet) copyRange(dst io.Writer, offset, count int64) (int64, error) {
	n, err := io.Copy(dst, io.NewSectionReader(s.seg.file, offset, count))
	metrics.SegmentBytesTransferred.WithLabelValues("copy").Add(float64(n))
	if err != nil {
		return n, fmt.Errorf("copy from %s: %w", s.seg.name(), err)
	}
	return n, nil
}

// TruncateTo shrinks the view to targetSize bytes and returns how many bytes
// were dropped. The target is not checked against frame boundaries.
func (s *FileMessageSet) TruncateTo(targetSize int64) (int64, error) {
	if err := s.checkMutable(); err != nil {
		return 0, err
	}
	original := s.SizeInBytes()
	if targetSize < 0 || targetSize > original {
		return 0, fmt.Errorf("%w: attempt to truncate %s to %d bytes, valid range is [0, %d]",
			ErrInvalidArgument, s.seg.name(), targetSize, original)
	}

	newEnd := s.start + targetSize
	if err := s.seg.file.Truncate(newEnd); err != nil {
		return 0, fmt.Errorf("truncate %s: %w", s.seg.name(), err)
	}
	if _, err := s.seg.file.Seek(newEnd, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek %s: %w", s.seg.name(), err)
	}
	s.size.Store(targetSize)
	s.preallocated = false

	removed := original - targetSize
	metrics.SegmentTruncations.Inc()
	metrics.SegmentTruncatedBytes.Add(float64(removed))
	util.Info("truncated segment %s to %d bytes (%d removed)", s.seg.name(), targetSize, removed)
	return removed, nil
}

// Flush forces written bytes to stable storage.
func (s *FileMessageSet) Flush() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.seg.file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", s.seg.name(), err)
	}
	return nil
}

// Close flushes and releases the descriptor. Closing a slice only releases
// the view; the descriptor stays open for the root. Repeated calls are no-ops.
func (s *FileMessageSet) Close() error {
	if s.isSlice {
		if s.released.CompareAndSwap(false, true) {
			s.seg.slices.Add(-1)
		}
		return nil
	}
	if !s.released.CompareAndSwap(false, true) {
		return nil
	}

	if s.writable {
		if err := s.seg.file.Sync(); err != nil {
			s.closeFile()
			return fmt.Errorf("sync %s: %w", s.seg.name(), err)
		}
		if s.preallocated {
			util.Debug("trimming preallocated segment %s to %d bytes", s.seg.name(), s.SizeInBytes())
			if err := s.seg.file.Truncate(s.start + s.SizeInBytes()); err != nil {
				s.closeFile()
				return fmt.Errorf("trim %s: %w", s.seg.name(), err)
			}
		}
	}
	return s.closeFile()
}

func (s *FileMessageSet) closeFile() error {
	s.seg.closed.Store(true)
	metrics.OpenSegments.Dec()
	if err := s.seg.file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.seg.name(), err)
	}
	return nil
}

// Delete closes the root and removes its file, reporting whether the file
// is gone. A failed close does not stop the removal. Slices cannot delete.
func (s *FileMessageSet) Delete() bool {
	if s.isSlice {
		util.Warn("refusing to delete %s through a slice view", s.seg.name())
		return false
	}
	if n := s.seg.slices.Load(); n > 0 {
		util.Warn("deleting segment %s with %d open slice(s)", s.seg.name(), n)
	}

	// The close error is dropped on purpose: removal is what the caller asked for.
	if err := s.Close(); err != nil {
		util.Debug("ignoring close error while deleting %s: %v", s.seg.name(), err)
	}

	if err := os.Remove(s.seg.name()); err != nil {
		util.Warn("failed to delete segment %s: %v", s.seg.name(), err)
		return false
	}
	return true
}

// Rename moves the backing file. The open descriptor keeps working and all
// views sharing it observe the new path.
func (s *FileMessageSet) Rename(newPath string) error {
	if err := os.Rename(s.seg.name(), newPath); err != nil {
		return fmt.Errorf("rename %s: %w", s.seg.name(), err)
	}
	util.Debug("renamed segment %s -> %s", s.seg.name(), newPath)
	s.seg.path.Store(&newPath)
	return nil
}
