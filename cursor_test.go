package cbor

import (
	"encoding/hex"
	"math"
	"strings"
	"testing"
)

// mustHex decodes a hex literal, ignoring spaces used to group bytes for
// readability (e.g. "83 01 20 F5").
func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		t.Fatalf("bad hex literal %q: %v", s, err)
	}
	return b
}

func TestRootArrayOfThreeItems(t *testing.T) {
	// spec §8.2 scenario 1.
	data := mustHex(t, "8301 20F5")
	p := NewParser(NewBufferSource(data))
	root, err := p.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.Kind() != KindArray {
		t.Fatalf("Kind() = %v, want Array", root.Kind())
	}

	child, err := root.EnterContainer()
	if err != nil {
		t.Fatalf("EnterContainer: %v", err)
	}

	if child.Kind() != KindUint {
		t.Fatalf("item 0 kind = %v, want Uint", child.Kind())
	}
	u, err := child.Uint64()
	if err != nil || u != 1 {
		t.Fatalf("Uint64() = %d, %v; want 1, nil", u, err)
	}
	if err := child.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if child.Kind() != KindNegInt {
		t.Fatalf("item 1 kind = %v, want NegInt", child.Kind())
	}
	i, err := child.Int64()
	if err != nil || i != -1 {
		t.Fatalf("Int64() = %d, %v; want -1, nil", i, err)
	}
	if err := child.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if child.Kind() != KindBool {
		t.Fatalf("item 2 kind = %v, want Bool", child.Kind())
	}
	b, err := child.Bool()
	if err != nil || !b {
		t.Fatalf("Bool() = %v, %v; want true, nil", b, err)
	}
	if err := child.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if !child.AtEnd() {
		t.Fatal("expected AtEnd after three items")
	}
	if err := root.LeaveContainer(&child); err != nil {
		t.Fatalf("LeaveContainer: %v", err)
	}
}

func TestMapMixedKeys(t *testing.T) {
	// spec §8.2 scenario 2: {1: "Hello", 2: false}.
	data := mustHex(t, "A2 0165 48656C6C6F 02F4")
	p := NewParser(NewBufferSource(data))
	root, err := p.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.Kind() != KindMap {
		t.Fatalf("Kind() = %v, want Map", root.Kind())
	}
	child, err := root.EnterContainer()
	if err != nil {
		t.Fatalf("EnterContainer: %v", err)
	}

	key1, err := child.Uint64()
	if err != nil || key1 != 1 {
		t.Fatalf("key1 = %d, %v", key1, err)
	}
	if err := child.Advance(); err != nil {
		t.Fatal(err)
	}
	s, err := child.DupString()
	if err != nil || string(s) != "Hello" {
		t.Fatalf("value1 = %q, %v", s, err)
	}

	key2, err := child.Uint64()
	if err != nil || key2 != 2 {
		t.Fatalf("key2 = %d, %v", key2, err)
	}
	if err := child.Advance(); err != nil {
		t.Fatal(err)
	}
	b, err := child.Bool()
	if err != nil || b {
		t.Fatalf("value2 = %v, %v", b, err)
	}
	if err := child.Advance(); err != nil {
		t.Fatal(err)
	}
	if !child.AtEnd() {
		t.Fatal("expected AtEnd after 2 key/value pairs")
	}
}

func TestIndefiniteTextStringThreeChunks(t *testing.T) {
	// spec §8.2 scenario 3.
	data := mustHex(t, "7F 6348656C 626C6F FF")
	p := NewParser(NewBufferSource(data))
	root, err := p.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.Kind() != KindTextString {
		t.Fatalf("Kind() = %v, want TextString", root.Kind())
	}
	if root.IsLengthKnown() {
		t.Fatal("expected indefinite-length string")
	}
	n, err := root.CalculateStringLength()
	if err != nil {
		t.Fatalf("CalculateStringLength: %v", err)
	}
	if n != 5 {
		t.Fatalf("CalculateStringLength = %d, want 5", n)
	}
	s, err := root.DupString()
	if err != nil || string(s) != "Hello" {
		t.Fatalf("DupString = %q, %v", s, err)
	}
}

func TestTaggedByteString(t *testing.T) {
	// spec §8.2 scenario 4: tag 23 over a 5-byte string "Hello".
	data := mustHex(t, "D817 4548656C6C6F")
	p := NewParser(NewBufferSource(data))
	root, err := p.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.Kind() != KindTag {
		t.Fatalf("Kind() = %v, want Tag", root.Kind())
	}
	tag, err := root.Tag()
	if err != nil || tag != uint64(TagExpectedBase16) {
		t.Fatalf("Tag() = %d, %v; want %d", tag, err, TagExpectedBase16)
	}
	if err := root.EnterTag(); err != nil {
		t.Fatalf("EnterTag: %v", err)
	}
	if root.Kind() != KindByteString {
		t.Fatalf("Kind() after EnterTag = %v, want ByteString", root.Kind())
	}
	b, err := root.DupString()
	if err != nil || string(b) != "Hello" {
		t.Fatalf("DupString = %q, %v", b, err)
	}
}

func TestHalfFloatNaN(t *testing.T) {
	// spec §8.2 scenario 5.
	data := mustHex(t, "F97E00")
	p := NewParser(NewBufferSource(data))
	root, err := p.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.Kind() != KindFloat16 {
		t.Fatalf("Kind() = %v, want Float16", root.Kind())
	}
	f, err := root.FloatValue()
	if err != nil {
		t.Fatalf("FloatValue: %v", err)
	}
	if !math.IsNaN(f) {
		t.Fatalf("FloatValue() = %v, want NaN", f)
	}
}

func TestOverlongEncodingDecodesButFailsCanonicalCheck(t *testing.T) {
	// spec §8.2 scenario 6: 0x18 0x05 is unsigned 5 in 2-byte form.
	data := mustHex(t, "1805")
	p := NewParser(NewBufferSource(data))
	root, err := p.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	v, err := root.Uint64()
	if err != nil || v != 5 {
		t.Fatalf("Uint64() = %d, %v; want 5, nil", v, err)
	}
	if root.IntegerValueTooLarge() {
		t.Fatal("IntegerValueTooLarge is only for 4- and 8-byte follow-ons, not the 1-byte form")
	}

	p2 := NewParser(NewBufferSource(data))
	if err := Validate(p2, WithCanonicalCheck()); err == nil {
		t.Fatal("expected canonical validation to reject the overlong form")
	} else if Kind(err) != ErrNonCanonicalEncoding {
		t.Fatalf("got %v, want ErrNonCanonicalEncoding", Kind(err))
	}
}

func TestChunkedStringTypeMismatch(t *testing.T) {
	// spec §8.2 scenario 7: byte-string chunk followed by a text-string
	// chunk inside an indefinite byte string.
	data := mustHex(t, "5F4148 6165 FF")
	p := NewParser(NewBufferSource(data))
	root, err := p.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	_, err = root.DupString()
	if err == nil || Kind(err) != ErrIllegalType {
		t.Fatalf("got %v, want ErrIllegalType", err)
	}
}

func TestTruncatedInputReturnsUnexpectedEOF(t *testing.T) {
	// spec §8.2 scenario 8.
	data := mustHex(t, "1B00000001 0000")
	p := NewParser(NewBufferSource(data))
	_, err := p.Root()
	if err == nil || Kind(err) != ErrUnexpectedEOF {
		t.Fatalf("got %v, want ErrUnexpectedEOF", err)
	}
}

func TestContainerCompletionInvariant(t *testing.T) {
	data := mustHex(t, "8201 02")
	p := NewParser(NewBufferSource(data))
	root, err := p.Root()
	if err != nil {
		t.Fatal(err)
	}
	child, err := root.EnterContainer()
	if err != nil {
		t.Fatal(err)
	}
	if err := child.Advance(); err != nil {
		t.Fatal(err)
	}
	if err := child.Advance(); err != nil {
		t.Fatal(err)
	}
	if !child.AtEnd() {
		t.Fatal("expected AtEnd after consuming declared length")
	}
	if err := child.Advance(); err == nil {
		t.Fatal("expected error advancing past AtEnd")
	}
}

func TestInt64OverflowChecked(t *testing.T) {
	// 2^63 as an unsigned integer does not fit in int64.
	buf := appendHead(nil, MajorTypeUnsignedInteger, 1<<63)
	p := NewParser(NewBufferSource(buf))
	root, err := p.Root()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := root.Int64(); err == nil || Kind(err) != ErrDataTooLarge {
		t.Fatalf("got %v, want ErrDataTooLarge", err)
	}

	// Major type 1 magnitude 2^63 also does not fit (-1-n underflows int64).
	buf2 := appendHead(nil, MajorTypeNegativeInteger, 1<<63)
	p2 := NewParser(NewBufferSource(buf2))
	root2, err := p2.Root()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := root2.Int64(); err == nil || Kind(err) != ErrDataTooLarge {
		t.Fatalf("got %v, want ErrDataTooLarge", err)
	}
}

func TestMaxDepthEnforced(t *testing.T) {
	// A chain of 3 nested single-element arrays, capped at depth 2.
	var buf []byte
	for i := 0; i < 3; i++ {
		buf = appendHead(buf, MajorTypeArray, 1)
	}
	buf = appendHead(buf, MajorTypeUnsignedInteger, 0)

	p := NewParser(NewBufferSource(buf), WithParserMaxDepth(2))
	root, err := p.Root()
	if err != nil {
		t.Fatal(err)
	}
	c1, err := root.EnterContainer()
	if err != nil {
		t.Fatal(err)
	}
	c2, err := c1.EnterContainer()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c2.EnterContainer(); err == nil || Kind(err) != ErrNestingTooDeep {
		t.Fatalf("got %v, want ErrNestingTooDeep", err)
	}
}
