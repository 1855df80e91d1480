// Package diff cross-checks this module's wire output against a second,
// independent CBOR implementation, since a self-consistent encode/decode
// round trip can't catch drift from RFC 8949 itself.
package diff

import (
	fxcbor "github.com/fxamacker/cbor/v2"
)

// DecodeGeneric decodes data with the reference implementation into a
// generic Go value (map[interface{}]interface{} / []any / scalars), for comparison
// against a value built by walking this module's own Cursor.
func DecodeGeneric(data []byte) (any, error) {
	var v any
	if err := fxcbor.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// EncodeGeneric encodes v with the reference implementation, producing wire
// bytes this module's own Parser should be able to walk without error.
func EncodeGeneric(v any) ([]byte, error) {
	return fxcbor.Marshal(v)
}
