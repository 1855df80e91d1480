package cbor

import (
	"bytes"
	"math"
	"testing"
)

func TestAppendHeadShortestForm(t *testing.T) {
	tests := []struct {
		name    string
		value   uint64
		wantLen int
	}{
		{"direct_0", 0, 1},
		{"direct_23", 23, 1},
		{"uint8_24", 24, 2},
		{"uint8_max", math.MaxUint8, 2},
		{"uint16_min", math.MaxUint8 + 1, 3},
		{"uint16_max", math.MaxUint16, 3},
		{"uint32_min", math.MaxUint16 + 1, 5},
		{"uint32_max", math.MaxUint32, 5},
		{"uint64_min", math.MaxUint32 + 1, 9},
		{"uint64_max", math.MaxUint64, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := appendHead(nil, MajorTypeUnsignedInteger, tt.value)
			if len(buf) != tt.wantLen {
				t.Fatalf("got %d bytes, want %d", len(buf), tt.wantLen)
			}
			if got := headLenForValue(tt.value); got != tt.wantLen {
				t.Errorf("headLenForValue = %d, want %d", got, tt.wantLen)
			}

			src := NewBufferSource(buf)
			head, ok, err := readHead(src, 0)
			if err != nil {
				t.Fatalf("readHead error: %v", err)
			}
			if !ok {
				t.Fatal("readHead reported no head available")
			}
			if head.value != tt.value {
				t.Errorf("decoded value = %d, want %d", head.value, tt.value)
			}
			if head.headLen != tt.wantLen {
				t.Errorf("decoded headLen = %d, want %d", head.headLen, tt.wantLen)
			}
		})
	}
}

func TestReadHeadReservedAdditionalInfo(t *testing.T) {
	for _, ai := range []byte{28, 29, 30} {
		src := NewBufferSource([]byte{encodeInitialByte(MajorTypeUnsignedInteger, ai)})
		_, ok, err := readHead(src, 0)
		if !ok {
			t.Fatalf("ai=%d: expected ok=true (byte present)", ai)
		}
		if err == nil || err.Kind != ErrIllegalNumber {
			t.Fatalf("ai=%d: got err=%v, want ErrIllegalNumber", ai, err)
		}
	}
}

func TestReadHeadEmptySourceIsNotAnError(t *testing.T) {
	src := NewBufferSource(nil)
	_, ok, err := readHead(src, 0)
	if ok {
		t.Fatal("expected ok=false on empty source")
	}
	if err != nil {
		t.Fatalf("expected nil error on empty source, got %v", err)
	}
}

func TestReadHeadTruncatedFollowOn(t *testing.T) {
	// ai=27 (8-byte follow-on) but only 6 bytes supplied: spec §8.2 scenario 8.
	data := []byte{0x1B, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00}
	src := NewBufferSource(data)
	_, ok, err := readHead(src, 0)
	if !ok {
		t.Fatal("expected ok=true: the initial byte itself is present")
	}
	if err == nil || err.Kind != ErrUnexpectedEOF {
		t.Fatalf("got err=%v, want ErrUnexpectedEOF", err)
	}
}

func TestHalfFloatRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		bits uint16
	}{
		{"zero", 0x0000},
		{"negative_zero", 0x8000},
		{"one", 0x3C00},
		{"nan", 0x7E00},
		{"pos_inf", 0x7C00},
		{"neg_inf", 0xFC00},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := decodeHalfFloat(tt.bits)
			bits, exact := encodeHalfFloat(float32(f))
			if math.IsNaN(f) {
				if bits != 0x7E00 && !exact {
					t.Errorf("NaN round trip: bits=%#04x exact=%v", bits, exact)
				}
				return
			}
			if !exact {
				t.Fatalf("expected exact round trip for %#04x", tt.bits)
			}
			if bits != tt.bits {
				t.Errorf("got bits %#04x, want %#04x", bits, tt.bits)
			}
		})
	}
}

func TestEncodeDecodeInitialByte(t *testing.T) {
	b := encodeInitialByte(MajorTypeTag, 24)
	mt, ai := decodeInitialByte(b)
	if mt != MajorTypeTag || ai != 24 {
		t.Errorf("got (%v, %d), want (%v, 24)", mt, ai, MajorTypeTag)
	}
}

func TestAppendHeadMatchesReferenceBytes(t *testing.T) {
	// Small integers & booleans: spec §8.2 scenario 1, array header + items.
	var buf []byte
	buf = appendHead(buf, MajorTypeArray, 3)
	buf = appendHead(buf, MajorTypeUnsignedInteger, 1)
	buf = appendHead(buf, MajorTypeNegativeInteger, 0)
	buf = append(buf, encodeInitialByte(MajorTypeSimpleOrFloat, byte(SimpleValueTrue)))
	want := []byte{0x83, 0x01, 0x20, 0xF5}
	if !bytes.Equal(buf, want) {
		t.Errorf("got % X, want % X", buf, want)
	}
}
