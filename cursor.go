package cbor

import (
	"bytes"
	"math"
)

// cursorFlags records the extra per-item detail kept alongside a
// Cursor's Kind: whether the head's value came in a 4- or 8-byte
// follow-on, whether it came from major type 1, and whether a
// string/array/map head declared no length at all.
type cursorFlags uint8

const (
	flagIntegerTooLarge cursorFlags = 1 << iota
	flagNegativeInteger
	flagUnknownLength
)

// remaining sentinels. A non-negative remaining counts items left
// (including the current one) in a definite-length array or map, where a
// map counts each key and value as one unit.
const (
	remainingIndefinite int64 = -1 // inside an indefinite array/map/string, terminated by a break byte
	remainingRoot       int64 = -2 // top-level item, terminated by source exhaustion
)

// Cursor is a lightweight, copyable, non-owning description of a Parser's
// current position ​3.2. It borrows its Parser rather than holding any
// resource of its own, so passing one by value is always safe and cheap.
type Cursor struct {
	p         *Parser
	pos       int64
	remaining int64
	value     uint64
	typ       Kind
	flags     cursorFlags
	major     MajorType
	headLen   int
	depth     int
}

// Parser owns the Source binding and the sticky error state shared by every
// Cursor derived from it. Once any operation fails, the Parser latches that
// error and every subsequently derived Cursor reports KindInvalid.
type Parser struct {
	src      Source
	maxDepth int
	err      *Error
}

// ParserOption configures a Parser at construction time.
type ParserOption func(*Parser)

// WithParserMaxDepth overrides the default container nesting cap. Tags do
// not count toward it.
func WithParserMaxDepth(n int) ParserOption {
	return func(p *Parser) { p.maxDepth = n }
}

// defaultMaxDepth bounds array and map nesting so a hostile input cannot
// force unbounded recursion through nested containers. A chain of tags is
// not counted against it.
const defaultMaxDepth = 1024

// NewParser binds a Parser to src.
func NewParser(src Source, opts ...ParserOption) *Parser {
	p := &Parser{src: src, maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Err returns the parser's latched error, or nil if none has occurred.
func (p *Parser) Err() error {
	if p.err == nil {
		return nil
	}
	return p.err
}

func (p *Parser) fail(kind ErrorKind) *Error {
	e := newErrorAt(kind, p.src.Offset())
	p.err = e
	return e
}

func (p *Parser) failErr(e *Error) *Error {
	p.err = e
	return e
}

// Root returns a Cursor over the top-level data item. Reaching the end of
// src before any item starts is not an error here: the returned Cursor's
// Kind is KindInvalid and AtEnd reports true, the normal empty-stream case.
func (p *Parser) Root() (Cursor, error) {
	c := Cursor{p: p, remaining: remainingRoot}
	if err := c.preParse(); err != nil {
		return c, err
	}
	return c, nil
}

// preParse decodes the head at the cursor's current source position and
// classifies it, per ​4.5. It never advances the source past the head: that
// only happens once a caller commits to consuming the item (Advance,
// AdvanceFixed, EnterContainer, CopyString, ...).
func (c *Cursor) preParse() error {
	p := c.p
	if p.err != nil {
		c.typ = KindInvalid
		return p.err
	}

	if c.remaining == 0 {
		c.typ = KindInvalid
		return nil
	}

	c.pos = p.src.Offset()
	head, ok, herr := readHead(p.src, 0)
	if herr != nil {
		c.typ = KindInvalid
		return p.failErr(herr)
	}
	if !ok {
		if c.remaining == remainingRoot {
			c.typ = KindInvalid
			return nil
		}
		c.typ = KindInvalid
		return p.fail(ErrUnexpectedEOF)
	}

	c.major = head.major
	c.headLen = head.headLen
	c.value = head.value
	c.flags = 0
	if head.tooLarge {
		c.flags |= flagIntegerTooLarge
	}

	if head.major == MajorTypeSimpleOrFloat && head.ai == 31 {
		if c.remaining != remainingIndefinite {
			c.typ = KindInvalid
			return p.fail(ErrUnexpectedBreak)
		}
		c.typ = KindBreak
		return nil
	}

	switch head.major {
	case MajorTypeUnsignedInteger:
		c.typ = KindUint
	case MajorTypeNegativeInteger:
		c.flags |= flagNegativeInteger
		c.typ = KindNegInt
	case MajorTypeByteString:
		c.typ = KindByteString
		if head.indefinite {
			c.flags |= flagUnknownLength
		}
	case MajorTypeTextString:
		c.typ = KindTextString
		if head.indefinite {
			c.flags |= flagUnknownLength
		}
	case MajorTypeArray:
		c.typ = KindArray
		if head.indefinite {
			c.flags |= flagUnknownLength
		}
	case MajorTypeMap:
		c.typ = KindMap
		if head.indefinite {
			c.flags |= flagUnknownLength
		}
	case MajorTypeTag:
		c.typ = KindTag
	case MajorTypeSimpleOrFloat:
		switch head.ai {
		case 20, 21:
			c.typ = KindBool
		case 22:
			c.typ = KindNull
		case 23:
			c.typ = KindUndefined
		case 24:
			c.typ = KindSimple
		case 25:
			c.typ = KindFloat16
		case 26:
			c.typ = KindFloat32
		case 27:
			c.typ = KindFloat64
		default:
			if head.ai < 20 {
				c.typ = KindSimple
				break
			}
			c.typ = KindInvalid
			return p.fail(ErrUnknownType)
		}
	}
	return nil
}

func (c *Cursor) checkErr() error {
	if c.p.err != nil {
		return c.p.err
	}
	return nil
}

func (c *Cursor) fail(kind ErrorKind) error {
	return c.p.fail(kind)
}

func (c *Cursor) typeError() error {
	return c.fail(ErrInternalError)
}

// Kind reports the item kind at the cursor's current position.
func (c *Cursor) Kind() Kind { return c.typ }

// Offset returns the source position of the current item's head.
func (c *Cursor) Offset() int64 { return c.pos }

// Depth reports the container nesting depth of the current position; tags
// do not add to it.
func (c *Cursor) Depth() int { return c.depth }

// IsLengthKnown reports whether the current array, map, byte string or text
// string declared a definite length. Always true for scalar kinds.
func (c *Cursor) IsLengthKnown() bool {
	return c.flags&flagUnknownLength == 0
}

// IsNegativeInteger reports whether the current integer came from major
// type 1 (CBOR's "negative integer", encoded as -1-n).
func (c *Cursor) IsNegativeInteger() bool {
	return c.flags&flagNegativeInteger != 0
}

// IntegerValueTooLarge reports whether the current item's head carried its
// value in a 4- or 8-byte follow-on (additional information 26 or 27). It
// says nothing about whether that form was the shortest one; the 1- and
// 2-byte follow-on forms never set it.
func (c *Cursor) IntegerValueTooLarge() bool {
	return c.flags&flagIntegerTooLarge != 0
}

// AtEnd reports whether this cursor has reached the natural end of its
// level: source exhaustion at the top level, a break byte inside an
// indefinite container, or remaining == 0 inside a definite one.
func (c *Cursor) AtEnd() bool {
	switch c.remaining {
	case remainingRoot:
		return c.typ == KindInvalid
	case remainingIndefinite:
		return c.typ == KindBreak
	default:
		return c.remaining == 0
	}
}

// Uint64 extracts the current item's value as an unsigned integer. Only
// valid when Kind() == KindUint.
func (c *Cursor) Uint64() (uint64, error) {
	if err := c.checkErr(); err != nil {
		return 0, err
	}
	if c.typ != KindUint {
		return 0, c.typeError()
	}
	return c.value, nil
}

// Int64 extracts the current item (major type 0 or 1) as a signed integer,
// per the get_int64_checked semantics of ​4.5: it fails with ErrDataTooLarge
// rather than silently wrapping when the magnitude does not fit in int64.
func (c *Cursor) Int64() (int64, error) {
	if err := c.checkErr(); err != nil {
		return 0, err
	}
	switch c.typ {
	case KindUint:
		if c.value > math.MaxInt64 {
			return 0, c.fail(ErrDataTooLarge)
		}
		return int64(c.value), nil
	case KindNegInt:
		if c.value >= 1<<63 {
			return 0, c.fail(ErrDataTooLarge)
		}
		return -1 - int64(c.value), nil
	default:
		return 0, c.typeError()
	}
}

// Tag extracts the current item's tag number. Only valid when Kind() ==
// KindTag; call Advance or AdvanceFixed afterward to reach the tagged item.
func (c *Cursor) Tag() (uint64, error) {
	if err := c.checkErr(); err != nil {
		return 0, err
	}
	if c.typ != KindTag {
		return 0, c.typeError()
	}
	return c.value, nil
}

// Bool extracts the current item's boolean value.
func (c *Cursor) Bool() (bool, error) {
	if err := c.checkErr(); err != nil {
		return false, err
	}
	if c.typ != KindBool {
		return false, c.typeError()
	}
	return c.value == uint64(SimpleValueTrue), nil
}

// IsNull reports whether the current item is the null simple value.
func (c *Cursor) IsNull() bool { return c.typ == KindNull }

// IsUndefined reports whether the current item is the undefined simple value.
func (c *Cursor) IsUndefined() bool { return c.typ == KindUndefined }

// Simple extracts the current item's simple-value number (0-19, 32-255;
// 20-23 surface as KindBool/KindNull/KindUndefined instead).
func (c *Cursor) Simple() (uint8, error) {
	if err := c.checkErr(); err != nil {
		return 0, err
	}
	if c.typ != KindSimple {
		return 0, c.typeError()
	}
	if c.value > 255 || (c.value >= 24 && c.value <= 31) {
		return 0, c.fail(ErrIllegalSimpleType)
	}
	return uint8(c.value), nil
}

// Float16Bits extracts the current item's raw binary16 bit pattern.
func (c *Cursor) Float16Bits() (uint16, error) {
	if err := c.checkErr(); err != nil {
		return 0, err
	}
	if c.typ != KindFloat16 {
		return 0, c.typeError()
	}
	return uint16(c.value), nil
}

// Float32 extracts the current item as a binary32 float.
func (c *Cursor) Float32() (float32, error) {
	if err := c.checkErr(); err != nil {
		return 0, err
	}
	if c.typ != KindFloat32 {
		return 0, c.typeError()
	}
	return decodeSingleFloat(uint32(c.value)), nil
}

// Float64 extracts the current item as a binary64 float.
func (c *Cursor) Float64() (float64, error) {
	if err := c.checkErr(); err != nil {
		return 0, err
	}
	if c.typ != KindFloat64 {
		return 0, c.typeError()
	}
	return decodeDoubleFloat(c.value), nil
}

// FloatValue extracts any of the three float kinds as a binary64, widening
// half- and single-precision values exactly.
func (c *Cursor) FloatValue() (float64, error) {
	if err := c.checkErr(); err != nil {
		return 0, err
	}
	switch c.typ {
	case KindFloat16:
		return decodeHalfFloat(uint16(c.value)), nil
	case KindFloat32:
		return float64(decodeSingleFloat(uint32(c.value))), nil
	case KindFloat64:
		return decodeDoubleFloat(c.value), nil
	default:
		return 0, c.typeError()
	}
}

// StringLength returns the declared length of a definite-length byte or
// text string and true, or (0, false) for an indefinite-length one (use
// CalculateStringLength instead).
func (c *Cursor) StringLength() (int64, bool) {
	if c.typ != KindByteString && c.typ != KindTextString {
		return 0, false
	}
	if !c.IsLengthKnown() {
		return 0, false
	}
	return int64(c.value), true
}

// CalculateStringLength returns the total length of the current byte or
// text string, walking chunk headers for an indefinite-length one. It is a
// pure lookahead: the source position is unchanged afterward, so it may be
// called any number of times. Overflow while summing chunk lengths reports
// ErrDataTooLarge; a chunk whose major type does not match the enclosing
// string, or that is itself indefinite-length, reports ErrIllegalType.
func (c *Cursor) CalculateStringLength() (int64, error) {
	if err := c.checkErr(); err != nil {
		return 0, err
	}
	if c.typ != KindByteString && c.typ != KindTextString {
		return 0, c.typeError()
	}
	if c.IsLengthKnown() {
		return int64(c.value), nil
	}

	total := int64(0)
	rel := c.headLen
	for {
		head, ok, herr := readHead(c.p.src, rel)
		if herr != nil {
			return 0, c.p.failErr(herr)
		}
		if !ok {
			return 0, c.fail(ErrUnexpectedEOF)
		}
		if head.major == MajorTypeSimpleOrFloat && head.ai == 31 {
			return total, nil
		}
		if head.major != c.major || head.indefinite {
			return 0, c.fail(ErrIllegalType)
		}
		chunkLen := int64(head.value)
		newTotal := total + chunkLen
		if newTotal < total {
			return 0, c.fail(ErrDataTooLarge)
		}
		total = newTotal
		rel += head.headLen + int(head.value)
	}
}

// CopyString copies the current byte or text string's content into dst and
// advances past it, per the copy_string semantics of ​4.5. It fails with
// ErrDataTooLarge if dst is not large enough; use CalculateStringLength (or
// DupString) to size a buffer first.
func (c *Cursor) CopyString(dst []byte) (int, error) {
	if err := c.checkErr(); err != nil {
		return 0, err
	}
	if c.typ != KindByteString && c.typ != KindTextString {
		return 0, c.typeError()
	}

	if c.IsLengthKnown() {
		n := int(c.value)
		if n > len(dst) {
			return 0, c.fail(ErrDataTooLarge)
		}
		data, err := c.p.src.TransferString(c.headLen, n)
		if err != nil {
			return 0, c.p.failErr(err.(*Error))
		}
		copy(dst, data)
		if err := c.advanceWithinLevel(); err != nil {
			return n, err
		}
		return n, nil
	}

	c.p.src.AdvanceBytes(c.headLen)
	major := c.major
	total := 0
	for {
		head, ok, herr := readHead(c.p.src, 0)
		if herr != nil {
			return total, c.p.failErr(herr)
		}
		if !ok {
			return total, c.fail(ErrUnexpectedEOF)
		}
		if head.major == MajorTypeSimpleOrFloat && head.ai == 31 {
			c.p.src.AdvanceBytes(1)
			break
		}
		if head.major != major || head.indefinite {
			return total, c.fail(ErrIllegalType)
		}
		n := int(head.value)
		if total+n > len(dst) {
			return total, c.fail(ErrDataTooLarge)
		}
		data, err := c.p.src.TransferString(head.headLen, n)
		if err != nil {
			return total, c.p.failErr(err.(*Error))
		}
		copy(dst[total:], data)
		total += n
	}
	if err := c.advanceWithinLevel(); err != nil {
		return total, err
	}
	return total, nil
}

// DupString allocates and returns a copy of the current string's content,
// advancing past it. It is the one parser-side operation that allocates.
func (c *Cursor) DupString() ([]byte, error) {
	if err := c.checkErr(); err != nil {
		return nil, err
	}
	n, err := c.CalculateStringLength()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := c.CopyString(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// TextEquals reports whether the current text string equals s, advancing
// past it either way. The definite-length, equal-length case compares
// directly against the source's own bytes without an intermediate copy.
func (c *Cursor) TextEquals(s string) (bool, error) {
	if err := c.checkErr(); err != nil {
		return false, err
	}
	if c.typ != KindTextString {
		return false, c.typeError()
	}
	if c.IsLengthKnown() {
		n := int(c.value)
		data, err := c.p.src.TransferString(c.headLen, n)
		if err != nil {
			return false, c.p.failErr(err.(*Error))
		}
		eq := n == len(s) && bytes.Equal(data, []byte(s))
		if err := c.advanceWithinLevel(); err != nil {
			return eq, err
		}
		return eq, nil
	}
	got, err := c.DupString()
	if err != nil {
		return false, err
	}
	return string(got) == s, nil
}

// EnterTag steps past the current tag's head, revealing the item it
// decorates at the same cursor (and the same remaining slot: a tag does
// not itself count as a container item, the value it decorates does).
// Only valid when Kind() == KindTag.
func (c *Cursor) EnterTag() error {
	if err := c.checkErr(); err != nil {
		return err
	}
	if c.typ != KindTag {
		return c.typeError()
	}
	return c.stepPastTagHead()
}

// EnterContainer begins traversal of the array or map the cursor currently
// points at, returning a child Cursor positioned over its first element
// (or already AtEnd, for an empty container).
func (c *Cursor) EnterContainer() (Cursor, error) {
	if err := c.checkErr(); err != nil {
		return Cursor{}, err
	}
	if c.typ != KindArray && c.typ != KindMap {
		return Cursor{}, c.typeError()
	}
	if c.depth+1 > c.p.maxDepth {
		return Cursor{}, c.fail(ErrNestingTooDeep)
	}

	c.p.src.AdvanceBytes(c.headLen)

	child := Cursor{p: c.p, depth: c.depth + 1}
	if c.IsLengthKnown() {
		n := c.value
		if c.typ == KindMap {
			if n > math.MaxInt64/2 {
				return Cursor{}, c.fail(ErrDataTooLarge)
			}
			child.remaining = int64(n) * 2
		} else {
			child.remaining = int64(n)
		}
	} else {
		child.remaining = remainingIndefinite
	}
	if err := child.preParse(); err != nil {
		return child, err
	}
	return child, nil
}

// LeaveContainer closes out a container traversal started by
// EnterContainer, consuming its break byte if indefinite-length, and
// resumes the parent at the next sibling item. It fails with
// ErrContainerNotCompleted if child has not reached AtEnd.
func (c *Cursor) LeaveContainer(child *Cursor) error {
	if err := c.checkErr(); err != nil {
		return err
	}
	if !child.AtEnd() {
		return c.fail(ErrContainerNotCompleted)
	}
	if child.remaining == remainingIndefinite {
		c.p.src.AdvanceBytes(1)
	}
	return c.advanceWithinLevel()
}

// advanceWithinLevel decrements this level's remaining count (a no-op at
// the root or inside an indefinite context, where termination is detected
// structurally instead) and pre-parses the next item at the same level.
func (c *Cursor) advanceWithinLevel() error {
	if c.remaining != remainingRoot && c.remaining != remainingIndefinite {
		c.remaining--
	}
	return c.preParse()
}

// stepPastTagHead consumes just the current tag's head byte(s) and
// re-parses in place, revealing the item it decorates at the same
// remaining slot (tags are transparent to container item counting). c
// must currently be a KindTag.
func (c *Cursor) stepPastTagHead() error {
	c.p.src.AdvanceBytes(c.headLen)
	return c.preParse()
}

// skipIndefiniteStringBytes consumes an indefinite-length string's chunks
// and terminating break without copying their content anywhere.
func (c *Cursor) skipIndefiniteStringBytes() error {
	c.p.src.AdvanceBytes(c.headLen)
	major := c.major
	for {
		head, ok, herr := readHead(c.p.src, 0)
		if herr != nil {
			return c.p.failErr(herr)
		}
		if !ok {
			return c.fail(ErrUnexpectedEOF)
		}
		if head.major == MajorTypeSimpleOrFloat && head.ai == 31 {
			c.p.src.AdvanceBytes(1)
			return nil
		}
		if head.major != major || head.indefinite {
			return c.fail(ErrIllegalType)
		}
		if _, err := c.p.src.TransferString(head.headLen, int(head.value)); err != nil {
			return c.p.failErr(err.(*Error))
		}
	}
}

// AdvanceFixed moves past exactly one non-container item, per ​4.5's
// advance_fixed: it never recurses into an array or map (use
// EnterContainer/LeaveContainer for those) and reports ErrInternalError if
// called on one. A tag is skipped transparently to reveal the item it
// decorates, which itself must be non-container.
func (c *Cursor) AdvanceFixed() error {
	if err := c.checkErr(); err != nil {
		return err
	}
	switch c.typ {
	case KindInvalid:
		return c.fail(ErrAdvancePastEOF)
	case KindArray, KindMap:
		return c.fail(ErrInternalError)
	case KindTag:
		if err := c.stepPastTagHead(); err != nil {
			return err
		}
		return c.AdvanceFixed()
	case KindByteString, KindTextString:
		if c.IsLengthKnown() {
			n := int(c.value)
			if _, err := c.p.src.TransferString(c.headLen, n); err != nil {
				return c.p.failErr(err.(*Error))
			}
		} else if err := c.skipIndefiniteStringBytes(); err != nil {
			return err
		}
		return c.advanceWithinLevel()
	default:
		c.p.src.AdvanceBytes(c.headLen)
		return c.advanceWithinLevel()
	}
}

// Advance moves past exactly one item, recursing into containers and
// chunked strings as needed so the cursor always lands on the next sibling
// at the current level (or AtEnd, if there is none).
func (c *Cursor) Advance() error {
	if err := c.checkErr(); err != nil {
		return err
	}
	switch c.typ {
	case KindInvalid:
		return c.fail(ErrAdvancePastEOF)
	case KindTag:
		if err := c.stepPastTagHead(); err != nil {
			return err
		}
		return c.advanceTaggedValue()
	case KindArray, KindMap:
		child, err := c.EnterContainer()
		if err != nil {
			return err
		}
		for !child.AtEnd() {
			if err := child.Advance(); err != nil {
				return err
			}
		}
		return c.LeaveContainer(&child)
	case KindByteString, KindTextString:
		if c.IsLengthKnown() {
			n := int(c.value)
			if _, err := c.p.src.TransferString(c.headLen, n); err != nil {
				return c.p.failErr(err.(*Error))
			}
		} else if err := c.skipIndefiniteStringBytes(); err != nil {
			return err
		}
		return c.advanceWithinLevel()
	default:
		c.p.src.AdvanceBytes(c.headLen)
		return c.advanceWithinLevel()
	}
}

// advanceTaggedValue finishes Advance for a chain of one or more tags: c
// has already been re-preParse'd onto the value following the tag head
// that was just skipped, at the same remaining slot as the tag itself
// (tags are transparent to container item counting).
func (c *Cursor) advanceTaggedValue() error {
	switch c.typ {
	case KindTag:
		if err := c.stepPastTagHead(); err != nil {
			return err
		}
		return c.advanceTaggedValue()
	case KindArray, KindMap:
		child, err := c.EnterContainer()
		if err != nil {
			return err
		}
		for !child.AtEnd() {
			if err := child.Advance(); err != nil {
				return err
			}
		}
		return c.LeaveContainer(&child)
	case KindByteString, KindTextString:
		if c.IsLengthKnown() {
			n := int(c.value)
			if _, err := c.p.src.TransferString(c.headLen, n); err != nil {
				return c.p.failErr(err.(*Error))
			}
		} else if err := c.skipIndefiniteStringBytes(); err != nil {
			return err
		}
		return c.advanceWithinLevel()
	default:
		c.p.src.AdvanceBytes(c.headLen)
		return c.advanceWithinLevel()
	}
}
