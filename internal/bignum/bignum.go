// Package bignum decodes and encodes the CBOR bignum tags (2 and 3,
// RFC 8949 §3.4.3) on top of the core Parser/Encoder.
package bignum

import (
	"math/big"

	cbor "github.com/cbor-stream/cbor"
)

// Decode reads one tagged bignum (tag 2, unsigned, or tag 3, negative) from
// c, which must currently point at the tag. It advances c past the whole
// tag+byte-string item.
func Decode(c *cbor.Cursor) (*big.Int, error) {
	tag, err := c.Tag()
	if err != nil {
		return nil, err
	}
	if tag != uint64(cbor.TagUnsignedBignum) && tag != uint64(cbor.TagNegativeBignum) {
		return nil, cbor.KindError(cbor.ErrInappropriateTagForType)
	}
	if err := c.EnterTag(); err != nil {
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

	v := new(big.Int).SetBytes(buf)
	if tag == uint64(cbor.TagNegativeBignum) {
		v.Add(v, big.NewInt(1))
		v.Neg(v)
	}
	return v, nil
}

// Encode writes v as a tag-2 (v >= 0) or tag-3 (v < 0) bignum.
func Encode(e *cbor.Encoder, v *big.Int) error {
	tag := cbor.TagUnsignedBignum
	mag := v
	if v.Sign() < 0 {
		tag = cbor.TagNegativeBignum
		mag = new(big.Int).Neg(v)
		mag.Sub(mag, big.NewInt(1))
	}
	if err := e.EncodeTag(uint64(tag)); err != nil {
		return err
	}
	return e.EncodeByteString(mag.Bytes())
}
