package cbor

import "io"

// Source is the byte-addressable input abstraction consumed by a Parser.
// All four operations are relative to the source's current position: `rel`
// is an offset ahead of that position (0 means "starting right here"),
// never behind it. A Source owns its own position and advances it only via
// AdvanceBytes/TransferString; CanReadBytes and ReadBytes never move it.
//
// Implementations must be safe to use from exactly one goroutine at a time;
// disjoint Sources for disjoint inputs may run concurrently.
type Source interface {
	// CanReadBytes reports whether n bytes starting rel bytes ahead of the
	// current position are available without blocking further.
	CanReadBytes(rel, n int) bool

	// ReadBytes copies n bytes starting rel bytes ahead of the current
	// position into dst[:n] without advancing the position. It reports
	// false if the bytes are not available.
	ReadBytes(rel, n int, dst []byte) bool

	// AdvanceBytes moves the current position forward by n bytes.
	AdvanceBytes(n int)

	// TransferString exposes n bytes starting rel bytes ahead of the
	// current position as a contiguous region and advances the position
	// past rel+n. The returned slice may alias source-owned storage
	// (the zero-copy fast path) or be freshly paged in; callers must treat
	// it as valid only until the next call that could invalidate paging.
	TransferString(rel, n int) ([]byte, error)

	// Offset returns an opaque, monotonically increasing position token
	// for the current position, used for error reporting and for the
	// position-token fields carried by a Cursor.
	Offset() int64
}

// BufferSource is the default Source: a contiguous in-memory buffer.
// All four operations run in constant time and TransferString never
// copies.
type BufferSource struct {
	buf []byte
	pos int
}

// NewBufferSource wraps buf (not copied) as a Source.
func NewBufferSource(buf []byte) *BufferSource {
	return &BufferSource{buf: buf}
}

// CanReadBytes implements Source.
func (s *BufferSource) CanReadBytes(rel, n int) bool {
	if rel < 0 || n < 0 {
		return false
	}
	start := s.pos + rel
	end := start + n
	return end >= start && end <= len(s.buf)
}

// ReadBytes implements Source.
func (s *BufferSource) ReadBytes(rel, n int, dst []byte) bool {
	if !s.CanReadBytes(rel, n) {
		return false
	}
	start := s.pos + rel
	copy(dst[:n], s.buf[start:start+n])
	return true
}

// AdvanceBytes implements Source.
func (s *BufferSource) AdvanceBytes(n int) {
	s.pos += n
}

// TransferString implements Source. It never copies: the returned slice
// aliases the backing buffer directly.
func (s *BufferSource) TransferString(rel, n int) ([]byte, error) {
	if !s.CanReadBytes(rel, n) {
		return nil, newErrorAt(ErrUnexpectedEOF, s.Offset())
	}
	start := s.pos + rel
	out := s.buf[start : start+n]
	s.pos = start + n
	return out, nil
}

// Offset implements Source.
func (s *BufferSource) Offset() int64 { return int64(s.pos) }

// Remaining returns the unread tail of the buffer, without consuming it.
func (s *BufferSource) Remaining() []byte { return s.buf[s.pos:] }

// defaultReloadWindow bounds how far ReaderSource will buffer ahead to
// satisfy a single CanReadBytes/ReadBytes/TransferString call.
const defaultReloadWindow = 64 * 1024

// ReaderSource is a pull-based Source backed by an io.Reader, suitable for
// file- or socket-backed parsing where the whole input is not resident in
// memory. It pages data into an internal reload buffer on demand.
type ReaderSource struct {
	r          io.Reader
	window     []byte // reload buffer; window[0] corresponds to absolute offset `base`
	base       int64  // absolute offset of window[0]
	filled     int    // valid bytes in window
	pos        int64  // current absolute position
	maxWindow  int
	eof        bool
}

// NewReaderSource wraps r as a pull-based Source. maxWindow bounds the
// buffering window in bytes; a non-positive value selects a 64KiB default.
func NewReaderSource(r io.Reader, maxWindow int) *ReaderSource {
	if maxWindow <= 0 {
		maxWindow = defaultReloadWindow
	}
	return &ReaderSource{r: r, maxWindow: maxWindow, window: make([]byte, 0, maxWindow)}
}

// ensure attempts to make n bytes starting rel ahead of pos available in
// the window, paging in more from r as needed. It reports whether they
// became available (false on EOF) and any non-EOF read error.
func (s *ReaderSource) ensure(rel, n int) (bool, error) {
	if rel < 0 || n < 0 {
		return false, nil
	}
	need := rel + n
	if need > s.maxWindow {
		return false, wrapIOError(errRegionTooLarge)
	}

	// Discard window bytes already behind pos.
	if s.base < s.pos {
		drop := int(s.pos - s.base)
		if drop >= s.filled {
			s.filled = 0
		} else {
			copy(s.window[:s.filled-drop], s.window[drop:s.filled])
			s.filled -= drop
		}
		s.base = s.pos
	}

	for s.filled < need && !s.eof {
		if cap(s.window) < need {
			grown := make([]byte, s.filled, need)
			copy(grown, s.window[:s.filled])
			s.window = grown
		}
		room := cap(s.window) - s.filled
		if room == 0 {
			break
		}
		n, err := s.r.Read(s.window[s.filled : s.filled+room])
		if n > 0 {
			s.filled += n
		}
		if err != nil {
			if err == io.EOF {
				s.eof = true
				break
			}
			return false, wrapIOError(err)
		}
		if n == 0 {
			s.eof = true
			break
		}
	}
	return s.filled >= need, nil
}

var errRegionTooLarge = io.ErrShortBuffer

// CanReadBytes implements Source.
func (s *ReaderSource) CanReadBytes(rel, n int) bool {
	ok, _ := s.ensure(rel, n)
	return ok
}

// ReadBytes implements Source.
func (s *ReaderSource) ReadBytes(rel, n int, dst []byte) bool {
	ok, _ := s.ensure(rel, n)
	if !ok {
		return false
	}
	copy(dst[:n], s.window[rel:rel+n])
	return true
}

// AdvanceBytes implements Source.
func (s *ReaderSource) AdvanceBytes(n int) {
	s.pos += int64(n)
}

// TransferString implements Source. When the requested span exceeds the
// buffering window, it fails with ErrIO rather than growing without bound.
func (s *ReaderSource) TransferString(rel, n int) ([]byte, error) {
	ok, err := s.ensure(rel, n)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newErrorAt(ErrUnexpectedEOF, s.Offset())
	}
	out := make([]byte, n)
	copy(out, s.window[rel:rel+n])
	s.pos += int64(rel + n)
	return out, nil
}

// Offset implements Source.
func (s *ReaderSource) Offset() int64 { return s.pos }
