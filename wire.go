package cbor

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"
)

// breakByte terminates indefinite-length containers and chunked strings.
const breakByte byte = 0xFF

// encodeInitialByte packs a major type and additional-information value into
// a single CBOR head byte.
func encodeInitialByte(mt MajorType, ai byte) byte {
	return byte(mt)<<5 | (ai & 0x1F)
}

// decodeInitialByte splits a CBOR head byte into major type and additional
// information.
func decodeInitialByte(b byte) (MajorType, byte) {
	return MajorType(b >> 5), b & 0x1F
}

// appendHead appends the shortest-form CBOR head for (mt, value) to buf and
// returns the extended slice. This is the canonical encoding used by every
// Encoder write path.
func appendHead(buf []byte, mt MajorType, value uint64) []byte {
	switch {
	case value < 24:
		return append(buf, encodeInitialByte(mt, byte(value)))
	case value <= math.MaxUint8:
		return append(buf, encodeInitialByte(mt, byte(AdditionalInfo8Bit)), byte(value))
	case value <= math.MaxUint16:
		buf = append(buf, encodeInitialByte(mt, byte(AdditionalInfo16Bit)))
		return binary.BigEndian.AppendUint16(buf, uint16(value))
	case value <= math.MaxUint32:
		buf = append(buf, encodeInitialByte(mt, byte(AdditionalInfo32Bit)))
		return binary.BigEndian.AppendUint32(buf, uint32(value))
	default:
		buf = append(buf, encodeInitialByte(mt, byte(AdditionalInfo64Bit)))
		return binary.BigEndian.AppendUint64(buf, value)
	}
}

// headLenForValue reports the total encoded head length (initial byte plus
// follow-on bytes) that appendHead would produce for value, without writing
// anything. Used by the Validator's canonical (shortest-form) head check.
func headLenForValue(value uint64) int {
	switch {
	case value < 24:
		return 1
	case value <= math.MaxUint8:
		return 2
	case value <= math.MaxUint16:
		return 3
	case value <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// decodedHead is the result of pre-parsing one CBOR item head.
type decodedHead struct {
	major      MajorType
	ai         byte
	value      uint64 // inline value, or fully-read follow-on value
	headLen    int    // total bytes consumed by the head (1 + follow-on)
	tooLarge   bool   // value needed a 4- or 8-byte follow-on (IntegerValueTooLarge)
	indefinite bool   // ai == 31: indefinite length (majors 2-5) or break (major 7)
}

// readHead pre-parses one item head starting rel bytes ahead of src's
// current position, without advancing it. ok is false only when there are
// no bytes at all at that position (the normal, non-error end of stream);
// any other insufficiency is reported as ErrUnexpectedEOF. ai values 28, 29
// and 30 are reserved and yield ErrIllegalNumber.
func readHead(src Source, rel int) (head decodedHead, ok bool, err *Error) {
	if !src.CanReadBytes(rel, 1) {
		return decodedHead{}, false, nil
	}
	var buf [9]byte
	src.ReadBytes(rel, 1, buf[:1])
	major, ai := decodeInitialByte(buf[0])

	need := func(n int) bool { return src.CanReadBytes(rel, n) }

	switch {
	case ai < 24:
		return decodedHead{major: major, ai: ai, value: uint64(ai), headLen: 1}, true, nil
	case ai == 24:
		if !need(2) {
			return decodedHead{}, true, newErrorAt(ErrUnexpectedEOF, src.Offset())
		}
		src.ReadBytes(rel, 2, buf[:2])
		return decodedHead{major: major, ai: ai, value: uint64(buf[1]), headLen: 2}, true, nil
	case ai == 25:
		if !need(3) {
			return decodedHead{}, true, newErrorAt(ErrUnexpectedEOF, src.Offset())
		}
		src.ReadBytes(rel, 3, buf[:3])
		return decodedHead{major: major, ai: ai, value: uint64(binary.BigEndian.Uint16(buf[1:3])), headLen: 3}, true, nil
	case ai == 26:
		if !need(5) {
			return decodedHead{}, true, newErrorAt(ErrUnexpectedEOF, src.Offset())
		}
		src.ReadBytes(rel, 5, buf[:5])
		return decodedHead{major: major, ai: ai, value: uint64(binary.BigEndian.Uint32(buf[1:5])), headLen: 5, tooLarge: true}, true, nil
	case ai == 27:
		if !need(9) {
			return decodedHead{}, true, newErrorAt(ErrUnexpectedEOF, src.Offset())
		}
		src.ReadBytes(rel, 9, buf[:9])
		return decodedHead{major: major, ai: ai, value: binary.BigEndian.Uint64(buf[1:9]), headLen: 9, tooLarge: true}, true, nil
	case ai == 28 || ai == 29 || ai == 30:
		return decodedHead{major: major, ai: ai, headLen: 1}, true, newErrorAt(ErrIllegalNumber, src.Offset())
	default: // ai == 31
		return decodedHead{major: major, ai: ai, headLen: 1, indefinite: true}, true, nil
	}
}

// decodeHalfFloat expands an IEEE-754 binary16 bit pattern to its exact
// binary64 value, including subnormals and +/-Inf/NaN.
func decodeHalfFloat(bits uint16) float64 {
	return float64(float16.Frombits(bits).Float32())
}

// encodeHalfFloat rounds f to the nearest binary16 representation
// (round-to-nearest-even) and reports whether the conversion was exact.
func encodeHalfFloat(f float32) (bits uint16, exact bool) {
	h := float16.Fromfloat32(f)
	exact = h.PrecisionFromfloat32(f) == float16.PrecisionExact
	return uint16(h), exact
}

// decodeSingleFloat expands an IEEE-754 binary32 bit pattern.
func decodeSingleFloat(bits uint32) float32 {
	return math.Float32frombits(bits)
}

// decodeDoubleFloat expands an IEEE-754 binary64 bit pattern.
func decodeDoubleFloat(bits uint64) float64 {
	return math.Float64frombits(bits)
}
