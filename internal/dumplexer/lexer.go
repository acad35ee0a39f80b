// Package dumplexer tokenizes an INSERT-statement SQL dump into a lazy
// sequence of untyped row tuples (one []string per VALUES(...) clause),
// and computes the byte-range split points a ParallelDumpProcessor uses to
// divide a dump file across workers.
package dumplexer

import (
	"errors"
	"fmt"
	"io"

	"github.com/proprietary/wikidice/internal/dumpio"
	"github.com/proprietary/wikidice/internal/ring"
	"github.com/proprietary/wikidice/internal/wikierrors"
)

// ByteSource is anything a Lexer can read a dump from: a single byte at a
// time, plus its current absolute offset (used for with_stop_at). A
// *dumpio.RangedByteStream satisfies this.
type ByteSource interface {
	ReadByte() (byte, error)
	Pos() int64
}

// ErrHeaderNotFound is returned by SkipHeader when the stream ends before
// the expected "INSERT INTO `table` VALUES (" literal is seen.
var ErrHeaderNotFound = errors.New("dumplexer: INSERT header not found before end of stream")

// Lexer turns a byte stream of dump text for one table into row tuples.
// A Lexer is not safe for concurrent use, and once Next returns (nil, nil)
// it is exhausted — it is not restartable.
type Lexer struct {
	src      ByteSource
	table    string
	pushback []byte
	finished bool
	stopAt   int64 // -1 means unset
}

// New creates a Lexer over src for rows of the named table. It does not
// itself seek past the INSERT header; call SkipHeader first.
func New(src ByteSource, table string) *Lexer {
	return &Lexer{src: src, table: table, stopAt: -1}
}

// WithStopAt sets an exclusive upper bound on the absolute stream offset:
// once the lexer's position reaches offset, Next returns (nil, nil) even
// if the underlying stream has more bytes.
func (l *Lexer) WithStopAt(offset int64) *Lexer {
	l.stopAt = offset
	return l
}

func (l *Lexer) pos() int64 { return l.src.Pos() - int64(len(l.pushback)) }

func (l *Lexer) readByte() (byte, error) {
	if n := len(l.pushback); n > 0 {
		b := l.pushback[n-1]
		l.pushback = l.pushback[:n-1]
		return b, nil
	}
	return l.src.ReadByte()
}

func (l *Lexer) unread(b byte) {
	l.pushback = append(l.pushback, b)
}

func (l *Lexer) unreadAll(bs []byte) {
	for i := len(bs) - 1; i >= 0; i-- {
		l.unread(bs[i])
	}
}

func header(table string) []byte {
	return []byte(fmt.Sprintf("INSERT INTO `%s` VALUES (", table))
}

// SkipHeader advances the stream until the literal
// "INSERT INTO `table` VALUES (" has just been consumed, using a
// BoundedRing to recognize the delimiter in a single streaming pass.
func (l *Lexer) SkipHeader() error {
	h := header(l.table)
	r, err := ring.New(len(h))
	if err != nil {
		return err
	}
	for {
		b, err := l.readByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrHeaderNotFound
			}
			return err
		}
		r.Push(b)
		if r.Equals(h) {
			return nil
		}
	}
}

// isPrintable keeps every byte except ASCII control characters and DEL;
// UTF-8 continuation/lead bytes (>= 0x80) are never stripped, so
// non-ASCII category names survive intact.
func isPrintable(b byte) bool {
	return b >= 0x20 && b != 0x7F
}

func postProcess(raw []byte) string {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		if isPrintable(b) {
			out = append(out, b)
		}
	}
	return string(out)
}

// Next parses the next row. It returns (nil, nil) at a clean end of
// stream, when the configured stop_at offset is reached, or when the
// stream ends mid-row (a truncated dump is tolerated, not an error).
func (l *Lexer) Next() ([]string, error) {
	if l.finished {
		return nil, nil
	}
	if l.stopAt >= 0 && l.pos() >= l.stopAt {
		l.finished = true
		return nil, nil
	}

	cols, err := l.parseRow()
	if err != nil {
		l.finished = true
		return nil, nil
	}

	b, err := l.readByte()
	if err != nil {
		l.finished = true
		return cols, nil
	}
	switch b {
	case ',':
		if err := l.advanceToNextParen(); err != nil {
			l.finished = true
		}
	case ';':
		if err := l.SkipHeader(); err != nil {
			l.finished = true
		}
	default:
		l.finished = true
	}
	return cols, nil
}

// parseRow reads columns up to and including the row's closing ')'.
func (l *Lexer) parseRow() ([]string, error) {
	var cols []string
	for {
		b, err := l.readByte()
		if err != nil {
			return nil, err
		}
		switch {
		case b == ')':
			return cols, nil
		case b == '\n', b == ',':
			continue
		case b == '\'':
			s, err := l.parseString()
			if err != nil {
				return nil, err
			}
			cols = append(cols, s)
		case b == 'N':
			ok, err := l.tryParseNull()
			if err != nil {
				return nil, err
			}
			if ok {
				cols = append(cols, "NULL")
			}
		case (b >= '0' && b <= '9') || b == '.':
			l.unread(b)
			cols = append(cols, l.parseNumber())
		default:
			// stray byte between values; tolerate and move on
		}
	}
}

// parseString reads a '\''-delimited literal. Inside the literal, \x is an
// escape: the next byte is appended verbatim, so \' yields a literal quote
// and does not terminate the string.
func (l *Lexer) parseString() (string, error) {
	var buf []byte
	for {
		b, err := l.readByte()
		if err != nil {
			return "", err
		}
		if b == '\\' {
			nxt, err := l.readByte()
			if err != nil {
				return "", err
			}
			buf = append(buf, nxt)
			continue
		}
		if b == '\'' {
			return postProcess(buf), nil
		}
		buf = append(buf, b)
	}
}

// parseNumber reads a run of [0-9.], skipping any embedded newlines, and
// un-reads the first byte that doesn't belong to the run.
func (l *Lexer) parseNumber() string {
	var buf []byte
	for {
		b, err := l.readByte()
		if err != nil {
			break
		}
		if b == '\n' {
			continue
		}
		if (b >= '0' && b <= '9') || b == '.' {
			buf = append(buf, b)
			continue
		}
		l.unread(b)
		break
	}
	return string(buf)
}

// tryParseNull checks whether the three bytes following an already
// consumed 'N' spell "ULL". A partial match un-reads the consumed bytes so
// they are available to the caller again.
func (l *Lexer) tryParseNull() (bool, error) {
	got := make([]byte, 0, 3)
	for i := 0; i < 3; i++ {
		b, err := l.readByte()
		if err != nil {
			l.unreadAll(got)
			return false, err
		}
		got = append(got, b)
	}
	if string(got) == "ULL" {
		return true, nil
	}
	l.unreadAll(got)
	return false, nil
}

// advanceToNextParen consumes bytes (skipping newlines) until a '(' is
// found, leaving the stream positioned just after it — the "),(" row
// separator within a single INSERT statement.
func (l *Lexer) advanceToNextParen() error {
	for {
		b, err := l.readByte()
		if err != nil {
			return err
		}
		if b == '\n' {
			continue
		}
		if b == '(' {
			return nil
		}
	}
}

// SplitOffsets scans filename for up to n_partitions non-overlapping byte
// ranges, each beginning exactly at the start of an "INSERT INTO `table`
// VALUES (" header. Every worker that parses one of these ranges must call
// SkipHeader before its first Next, including the first range — this is
// what lets every range start independently without cross-thread
// coordination, and is why begin_0 is a header start like every other
// boundary rather than the post-header position the prose in spec.md's
// §4.3 literally describes.
func SplitOffsets(filename, table string, nPartitions int) ([][2]int64, error) {
	if nPartitions <= 0 {
		return nil, wikierrors.NewInvalidArgument("dumplexer.SplitOffsets", "n_partitions must be > 0")
	}
	size, err := dumpio.FileSize(filename)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}

	h := header(table)
	findFrom := func(start int64) (int64, bool, error) {
		if start >= size {
			return 0, false, nil
		}
		stream, err := dumpio.Open(filename, start, size)
		if err != nil {
			return 0, false, err
		}
		defer stream.Close()
		r, err := ring.New(len(h))
		if err != nil {
			return 0, false, err
		}
		pos := start
		for {
			b, err := stream.ReadByte()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return 0, false, nil
				}
				return 0, false, err
			}
			r.Push(b)
			pos++
			if r.Equals(h) {
				return pos - int64(len(h)), true, nil
			}
		}
	}

	first, found, err := findFrom(0)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("dumplexer: no %q INSERT header found in %s", table, filename)
	}
	starts := []int64{first}

	stride := size / int64(nPartitions)
	if stride <= 0 {
		stride = size
	}
	for i := 1; i < nPartitions; i++ {
		candidate := int64(i) * stride
		if candidate <= starts[len(starts)-1] {
			continue
		}
		pos, found, err := findFrom(candidate)
		if err != nil {
			return nil, err
		}
		if !found {
			break
		}
		if pos <= starts[len(starts)-1] {
			continue
		}
		starts = append(starts, pos)
	}

	ranges := make([][2]int64, len(starts))
	for i, s := range starts {
		end := size
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		ranges[i] = [2]int64{s, end}
	}
	return ranges, nil
}
