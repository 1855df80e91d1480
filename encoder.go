package cbor

import (
	"encoding/binary"
	"math"
)

// Encoder writes CBOR items to a bound Sink, per ​3.3 / ​4.4. All state
// (the bound Sink, the latched error) lives on the Encoder; a Container
// value describes one nesting level the way a Cursor describes one parse
// position, and shares the same Encoder/Sink rather than owning anything.
type Encoder struct {
	sink       Sink
	err        *Error
	scratch    [9]byte
	laxClosing bool
	checkUser  bool
	maxDepth   int
}

// EncoderOption configures an Encoder at construction time.
type EncoderOption func(*Encoder)

// WithLaxContainerClose disables the default strict check that closing a
// definite-length array or map was given exactly as many items as it
// declared. Leave this unset unless a caller has a specific reason to emit
// (or tolerate) a short or over-long container.
func WithLaxContainerClose() EncoderOption {
	return func(e *Encoder) { e.laxClosing = true }
}

// WithoutSimpleValueCheck disables the check-user flag that EncodeSimpleValue
// otherwise applies, allowing a caller to emit a simple value in the
// reserved 24-31 range (not-well-formed per RFC 8949) without
// IllegalSimpleType being reported.
func WithoutSimpleValueCheck() EncoderOption {
	return func(e *Encoder) { e.checkUser = false }
}

// WithEncoderMaxDepth overrides the default container nesting cap.
func WithEncoderMaxDepth(n int) EncoderOption {
	return func(e *Encoder) { e.maxDepth = n }
}

// NewEncoder binds an Encoder to sink. The check-user flag (rejecting
// illegal simple values at encode time) is on by default; see
// WithoutSimpleValueCheck.
func NewEncoder(sink Sink, opts ...EncoderOption) *Encoder {
	e := &Encoder{sink: sink, checkUser: true, maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Err returns the encoder's latched error, or nil.
func (e *Encoder) Err() error {
	if e.err == nil {
		return nil
	}
	return e.err
}

func (e *Encoder) checkErr() error {
	if e.err != nil {
		return e.err
	}
	return nil
}

func (e *Encoder) fail(kind ErrorKind) error {
	err := newError(kind)
	e.err = err
	return err
}

// append funnels every write through the Sink, latching and returning
// whatever error it reports (translating a plain error from a custom Sink
// implementation into ErrIO).
func (e *Encoder) append(p []byte) error {
	if err := e.checkErr(); err != nil {
		return err
	}
	if err := e.sink.Append(p); err != nil {
		if ce, ok := err.(*Error); ok {
			e.err = ce
			return ce
		}
		wrapped := wrapIOError(err)
		e.err = wrapped
		return wrapped
	}
	return nil
}

func (e *Encoder) appendByte(b byte) error {
	return e.append([]byte{b})
}

func (e *Encoder) writeHead(major MajorType, value uint64) error {
	buf := appendHead(e.scratch[:0], major, value)
	return e.append(buf)
}

func (e *Encoder) appendDefiniteString(major MajorType, data []byte) error {
	if err := e.writeHead(major, uint64(len(data))); err != nil {
		return err
	}
	return e.append(data)
}

// EncodeUint writes an unsigned integer (major type 0) in its shortest form.
func (e *Encoder) EncodeUint(v uint64) error {
	return e.writeHead(MajorTypeUnsignedInteger, v)
}

// EncodeNegativeInt writes major type 1 with raw magnitude n, producing the
// value -1-n. EncodeNegativeInt(0) therefore encodes -1, not 0: major type
// 1's own definition is "-1 minus the encoded value", and this API mirrors
// that rather than pretending it is symmetric with EncodeUint.
func (e *Encoder) EncodeNegativeInt(n uint64) error {
	return e.writeHead(MajorTypeNegativeInteger, n)
}

// EncodeInt writes v as whichever major type its sign requires.
func (e *Encoder) EncodeInt(v int64) error {
	if v >= 0 {
		return e.EncodeUint(uint64(v))
	}
	return e.EncodeNegativeInt(uint64(-1 - v))
}

// EncodeBool writes the false or true simple value.
func (e *Encoder) EncodeBool(v bool) error {
	ai := byte(SimpleValueFalse)
	if v {
		ai = byte(SimpleValueTrue)
	}
	return e.appendByte(encodeInitialByte(MajorTypeSimpleOrFloat, ai))
}

// EncodeNull writes the null simple value.
func (e *Encoder) EncodeNull() error {
	return e.appendByte(encodeInitialByte(MajorTypeSimpleOrFloat, byte(SimpleValueNull)))
}

// EncodeUndefined writes the undefined simple value.
func (e *Encoder) EncodeUndefined() error {
	return e.appendByte(encodeInitialByte(MajorTypeSimpleOrFloat, byte(SimpleValueUndefined)))
}

// EncodeSimpleValue writes a simple value. Values 0-23 always use the
// direct one-byte form (20-23 collide bit-for-bit with EncodeBool/Null/
// Undefined, which is expected: those are simple values too); values 32-255
// use the one-follow-on-byte form. Values 24-31 are reserved by RFC 8949 and
// never well-formed in the wider form; the check-user flag (on by default,
// see WithoutSimpleValueCheck) reports IllegalSimpleType for them instead of
// emitting not-well-formed CBOR.
func (e *Encoder) EncodeSimpleValue(v uint8) error {
	if v < 24 {
		return e.appendByte(encodeInitialByte(MajorTypeSimpleOrFloat, v))
	}
	if v <= 31 && e.checkUser {
		return e.fail(ErrIllegalSimpleType)
	}
	return e.append([]byte{encodeInitialByte(MajorTypeSimpleOrFloat, 24), v})
}

// EncodeFloat16Bits writes a raw binary16 bit pattern.
func (e *Encoder) EncodeFloat16Bits(bits uint16) error {
	buf := e.scratch[:0]
	buf = append(buf, encodeInitialByte(MajorTypeSimpleOrFloat, 25))
	buf = binary.BigEndian.AppendUint16(buf, bits)
	return e.append(buf)
}

// EncodeFloat32 writes f as a binary32 float.
func (e *Encoder) EncodeFloat32(f float32) error {
	buf := e.scratch[:0]
	buf = append(buf, encodeInitialByte(MajorTypeSimpleOrFloat, 26))
	buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(f))
	return e.append(buf)
}

// EncodeFloat64 writes f as a binary64 float.
func (e *Encoder) EncodeFloat64(f float64) error {
	buf := e.scratch[:0]
	buf = append(buf, encodeInitialByte(MajorTypeSimpleOrFloat, 27))
	buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(f))
	return e.append(buf)
}

// EncodeFloatShortest writes f in the narrowest of binary16/32/64 that
// represents it exactly (NaN always narrows to the canonical binary16
// quiet NaN 0x7e00).
func (e *Encoder) EncodeFloatShortest(f float64) error {
	if math.IsNaN(f) {
		return e.EncodeFloat16Bits(0x7e00)
	}
	if f32 := float32(f); float64(f32) == f {
		if bits, exact := encodeHalfFloat(f32); exact {
			return e.EncodeFloat16Bits(bits)
		}
		return e.EncodeFloat32(f32)
	}
	return e.EncodeFloat64(f)
}

// EncodeTag writes a semantic tag number; the caller must write the tagged
// item next.
func (e *Encoder) EncodeTag(tag uint64) error {
	return e.writeHead(MajorTypeTag, tag)
}

// EncodeByteString writes a definite-length byte string.
func (e *Encoder) EncodeByteString(data []byte) error {
	return e.appendDefiniteString(MajorTypeByteString, data)
}

// EncodeTextString writes a definite-length text string. It does not
// validate that s is well-formed UTF-8: that check belongs to the
// Validator, not to the (trusted-input) encoder write path.
func (e *Encoder) EncodeTextString(s string) error {
	return e.appendDefiniteString(MajorTypeTextString, []byte(s))
}

// Container is a lightweight, non-owning handle on one array, map or
// chunked-string level opened on an Encoder, mirroring Cursor's role on
// the parse side. It shares the parent Encoder's Sink and error state
// directly rather than buffering anything of its own. A nested container
// counts as one item of its parent when it is opened; CloseContainer only
// checks its own count or writes its break byte.
type Container struct {
	e         *Encoder
	major     MajorType
	remaining int64
	depth     int
}

func (e *Encoder) createDefiniteContainerAt(major MajorType, n int64, depth int) (Container, error) {
	if err := e.checkErr(); err != nil {
		return Container{}, err
	}
	if depth > e.maxDepth {
		return Container{}, e.fail(ErrNestingTooDeep)
	}
	if n < 0 {
		return Container{}, e.fail(ErrInternalError)
	}
	if err := e.writeHead(major, uint64(n)); err != nil {
		return Container{}, err
	}
	remaining := n
	if major == MajorTypeMap {
		remaining = n * 2
	}
	return Container{e: e, major: major, remaining: remaining, depth: depth}, nil
}

func (e *Encoder) createIndefiniteContainerAt(major MajorType, depth int) (Container, error) {
	if err := e.checkErr(); err != nil {
		return Container{}, err
	}
	if depth > e.maxDepth {
		return Container{}, e.fail(ErrNestingTooDeep)
	}
	if err := e.appendByte(encodeInitialByte(major, 31)); err != nil {
		return Container{}, err
	}
	return Container{e: e, major: major, remaining: remainingIndefinite, depth: depth}, nil
}

func (e *Encoder) createDefiniteContainer(major MajorType, n int64) (Container, error) {
	return e.createDefiniteContainerAt(major, n, 0)
}

func (e *Encoder) createIndefiniteContainer(major MajorType) (Container, error) {
	return e.createIndefiniteContainerAt(major, 0)
}

// CreateArray opens a definite-length array of n elements.
func (e *Encoder) CreateArray(n int64) (Container, error) {
	return e.createDefiniteContainer(MajorTypeArray, n)
}

// CreateIndefiniteArray opens an indefinite-length array, closed with a
// break byte by CloseContainer.
func (e *Encoder) CreateIndefiniteArray() (Container, error) {
	return e.createIndefiniteContainer(MajorTypeArray)
}

// CreateMap opens a definite-length map of n key/value pairs.
func (e *Encoder) CreateMap(n int64) (Container, error) {
	return e.createDefiniteContainer(MajorTypeMap, n)
}

// CreateIndefiniteMap opens an indefinite-length map.
func (e *Encoder) CreateIndefiniteMap() (Container, error) {
	return e.createIndefiniteContainer(MajorTypeMap)
}

// BeginIndefiniteByteString opens a chunked byte string; each chunk is
// written with WriteChunk and must itself be a definite-length byte
// string (RFC 8949 forbids nesting indefinite-length chunks).
func (e *Encoder) BeginIndefiniteByteString() (Container, error) {
	return e.createIndefiniteContainer(MajorTypeByteString)
}

// BeginIndefiniteTextString opens a chunked text string.
func (e *Encoder) BeginIndefiniteTextString() (Container, error) {
	return e.createIndefiniteContainer(MajorTypeTextString)
}

// CloseContainer finishes a container opened on e. For an indefinite-
// length container it writes the terminating break byte. For a
// definite-length array or map it checks, unless WithLaxContainerClose was
// set, that exactly the declared number of items were written, reporting
// ErrContainerNotCompleted otherwise.
func (e *Encoder) CloseContainer(c *Container) error {
	if err := e.checkErr(); err != nil {
		return err
	}
	if c.remaining == remainingIndefinite {
		return e.appendByte(breakByte)
	}
	if c.remaining != 0 && !e.laxClosing {
		return e.fail(ErrContainerNotCompleted)
	}
	return nil
}

func (c *Container) markItem() {
	// remainingOverfull marks a definite container given more items than it
	// declared; it is neither 0 nor remainingIndefinite, so CloseContainer
	// reports it instead of treating it as indefinite.
	const remainingOverfull int64 = -3
	switch {
	case c.remaining > 0:
		c.remaining--
	case c.remaining == 0:
		c.remaining = remainingOverfull
	}
}

func (c *Container) wrap(err error) error {
	if err != nil {
		return err
	}
	c.markItem()
	return nil
}

// EncodeUint writes an element/value into the container.
func (c *Container) EncodeUint(v uint64) error { return c.wrap(c.e.EncodeUint(v)) }

// EncodeNegativeInt writes an element/value into the container.
func (c *Container) EncodeNegativeInt(n uint64) error { return c.wrap(c.e.EncodeNegativeInt(n)) }

// EncodeInt writes an element/value into the container.
func (c *Container) EncodeInt(v int64) error { return c.wrap(c.e.EncodeInt(v)) }

// EncodeBool writes an element/value into the container.
func (c *Container) EncodeBool(v bool) error { return c.wrap(c.e.EncodeBool(v)) }

// EncodeNull writes an element/value into the container.
func (c *Container) EncodeNull() error { return c.wrap(c.e.EncodeNull()) }

// EncodeUndefined writes an element/value into the container.
func (c *Container) EncodeUndefined() error { return c.wrap(c.e.EncodeUndefined()) }

// EncodeSimpleValue writes an element/value into the container.
func (c *Container) EncodeSimpleValue(v uint8) error { return c.wrap(c.e.EncodeSimpleValue(v)) }

// EncodeFloat16Bits writes an element/value into the container.
func (c *Container) EncodeFloat16Bits(bits uint16) error {
	return c.wrap(c.e.EncodeFloat16Bits(bits))
}

// EncodeFloat32 writes an element/value into the container.
func (c *Container) EncodeFloat32(f float32) error { return c.wrap(c.e.EncodeFloat32(f)) }

// EncodeFloat64 writes an element/value into the container.
func (c *Container) EncodeFloat64(f float64) error { return c.wrap(c.e.EncodeFloat64(f)) }

// EncodeFloatShortest writes an element/value into the container.
func (c *Container) EncodeFloatShortest(f float64) error {
	return c.wrap(c.e.EncodeFloatShortest(f))
}

// EncodeTag writes a tag decorating the container's next element; the
// tag itself does not consume a slot, the value it decorates does.
func (c *Container) EncodeTag(tag uint64) error { return c.e.EncodeTag(tag) }

// EncodeByteString writes an element/value into the container.
func (c *Container) EncodeByteString(data []byte) error { return c.wrap(c.e.EncodeByteString(data)) }

// EncodeTextString writes an element/value into the container.
func (c *Container) EncodeTextString(s string) error { return c.wrap(c.e.EncodeTextString(s)) }

// CreateArray opens a nested definite-length array as the container's next
// element.
func (c *Container) CreateArray(n int64) (Container, error) {
	child, err := c.e.createDefiniteContainerAt(MajorTypeArray, n, c.depth+1)
	if err != nil {
		return child, err
	}
	c.markItem()
	return child, nil
}

// CreateMap opens a nested definite-length map as the container's next
// element.
func (c *Container) CreateMap(n int64) (Container, error) {
	child, err := c.e.createDefiniteContainerAt(MajorTypeMap, n, c.depth+1)
	if err != nil {
		return child, err
	}
	c.markItem()
	return child, nil
}

// WriteChunk writes one definite-length chunk of a byte string opened with
// BeginIndefiniteByteString. Chunks are not counted against any declared
// length; only the terminating break, written by CloseContainer, ends them.
func (c *Container) WriteChunk(data []byte) error {
	if c.major != MajorTypeByteString {
		return c.e.fail(ErrInternalError)
	}
	return c.e.appendDefiniteString(MajorTypeByteString, data)
}

// WriteTextChunk writes one definite-length chunk of a text string opened
// with BeginIndefiniteTextString.
func (c *Container) WriteTextChunk(s string) error {
	if c.major != MajorTypeTextString {
		return c.e.fail(ErrInternalError)
	}
	return c.e.appendDefiniteString(MajorTypeTextString, []byte(s))
}
