// Package dumpio provides a buffered, range-bounded byte reader over a
// single file, so many goroutines can each scan a disjoint slice of the
// same large SQL dump concurrently.
package dumpio

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/proprietary/wikidice/internal/wikierrors"
)

// bufferSize mirrors the original C++ FilePortionStream's read chunk.
const bufferSize = 1 << 20 // 1 MiB

// RangedByteStream reads bytes from [begin, end) of a file through its own
// file handle, so it never shares a seek cursor with any other stream on
// the same file. Reads past end report io.EOF.
type RangedByteStream struct {
	file   *os.File
	r      *bufio.Reader
	pos    int64
	end    int64
	closed bool
}

// Open opens filename and positions a RangedByteStream at begin, refusing
// to read at or past end.
func Open(filename string, begin, end int64) (*RangedByteStream, error) {
	if begin < 0 || end < begin {
		return nil, wikierrors.NewInvalidArgument("dumpio.Open", "begin/end out of order")
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, wikierrors.NewIoFailure("open", filename, err)
	}
	if _, err := f.Seek(begin, io.SeekStart); err != nil {
		f.Close()
		return nil, wikierrors.NewIoFailure("seek", filename, err)
	}
	return &RangedByteStream{
		file: f,
		r:    bufio.NewReaderSize(f, bufferSize),
		pos:  begin,
		end:  end,
	}, nil
}

// ReadByte returns the next byte in range, or io.EOF once pos reaches end
// or the underlying file is exhausted.
func (s *RangedByteStream) ReadByte() (byte, error) {
	if s.pos >= s.end {
		return 0, io.EOF
	}
	b, err := s.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		return 0, wikierrors.NewIoFailure("read", s.file.Name(), err)
	}
	s.pos++
	return b, nil
}

// Pos reports the current absolute offset into the file.
func (s *RangedByteStream) Pos() int64 { return s.pos }

// End reports the exclusive upper bound this stream was opened with.
func (s *RangedByteStream) End() int64 { return s.end }

// Close releases the underlying file handle. Safe to call more than once.
func (s *RangedByteStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.file.Close()
}

// FileSize returns the size in bytes of filename, used to compute split
// offsets before any RangedByteStream is opened.
func FileSize(filename string) (int64, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return 0, wikierrors.NewIoFailure("stat", filename, err)
	}
	return info.Size(), nil
}
