// Package jsonconv renders a CBOR item, read through a Cursor, as JSON. It
// streams item by item rather than building a Go value and calling
// encoding/json.Marshal, since the source is a Cursor walk, not a Go value;
// only the text-escaping rules are borrowed from JSON's own conventions.
package jsonconv

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	cbor "github.com/cbor-stream/cbor"

	"github.com/cbor-stream/cbor/internal/prettyprint"
)

// ByteStringEncoding selects how byte strings are rendered, since JSON has
// no native binary type.
type ByteStringEncoding int

const (
	// Base64URL renders byte strings as unpadded base64url text, the default
	// REST/web convention.
	Base64URL ByteStringEncoding = iota
	// Base64 renders byte strings as standard base64 text.
	Base64
	// Base16 renders byte strings as lowercase hex text.
	Base16
)

// Options controls the byte-string representation policy; everything else
// about the conversion is fixed by the JSON grammar itself.
type Options struct {
	ByteStrings ByteStringEncoding
}

// Write renders c's current item, and everything nested inside it, to w as
// JSON.
func Write(w io.Writer, c *cbor.Cursor, opts Options) error {
	return writeItem(w, c, opts)
}

func writeItem(w io.Writer, c *cbor.Cursor, opts Options) error {
	switch c.Kind() {
	case cbor.KindUint:
		v, err := c.Uint64()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%d", v); err != nil {
			return err
		}
		return c.AdvanceFixed()
	case cbor.KindNegInt:
		v, err := c.Int64()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%d", v); err != nil {
			return err
		}
		return c.AdvanceFixed()
	case cbor.KindBool:
		v, err := c.Bool()
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, strconv.FormatBool(v)); err != nil {
			return err
		}
		return c.AdvanceFixed()
	case cbor.KindNull, cbor.KindUndefined:
		if _, err := io.WriteString(w, "null"); err != nil {
			return err
		}
		return c.AdvanceFixed()
	case cbor.KindSimple:
		v, err := c.Simple()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%d", v); err != nil {
			return err
		}
		return c.AdvanceFixed()
	case cbor.KindFloat16, cbor.KindFloat32, cbor.KindFloat64:
		f, err := c.FloatValue()
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, strconv.FormatFloat(f, 'g', -1, 64)); err != nil {
			return err
		}
		return c.AdvanceFixed()
	case cbor.KindTextString:
		s, err := c.DupString()
		if err != nil {
			return err
		}
		return writeJSONString(w, string(s))
	case cbor.KindByteString:
		data, err := c.DupString()
		if err != nil {
			return err
		}
		return writeJSONString(w, encodeBytes(data, opts.ByteStrings))
	case cbor.KindArray:
		return writeArray(w, c, opts)
	case cbor.KindMap:
		return writeMap(w, c, opts)
	case cbor.KindTag:
		if err := c.EnterTag(); err != nil {
			return err
		}
		return writeItem(w, c, opts)
	default:
		return cbor.KindError(cbor.ErrInternalError)
	}
}

func writeArray(w io.Writer, c *cbor.Cursor, opts Options) error {
	child, err := c.EnterContainer()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, "["); err != nil {
		return err
	}
	first := true
	for !child.AtEnd() {
		if !first {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		first = false
		if err := writeItem(w, &child, opts); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "]"); err != nil {
		return err
	}
	return c.LeaveContainer(&child)
}

func writeMap(w io.Writer, c *cbor.Cursor, opts Options) error {
	child, err := c.EnterContainer()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, "{"); err != nil {
		return err
	}
	first := true
	for !child.AtEnd() {
		if !first {
			if _, err := io.WriteString(w, ","); err != nil {
				return err
			}
		}
		first = false
		if err := writeKey(w, &child); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ":"); err != nil {
			return err
		}
		if err := writeItem(w, &child, opts); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "}"); err != nil {
		return err
	}
	return c.LeaveContainer(&child)
}

// writeKey renders a map key as a JSON string. Text keys pass straight
// through; anything else is rendered via the diagnostic-notation
// pretty-printer and quoted, since JSON object keys must be strings but
// CBOR map keys need not be.
func writeKey(w io.Writer, c *cbor.Cursor) error {
	if c.Kind() == cbor.KindTextString {
		s, err := c.DupString()
		if err != nil {
			return err
		}
		return writeJSONString(w, string(s))
	}
	var buf bytes.Buffer
	if err := prettyprint.Write(&buf, c); err != nil {
		return err
	}
	return writeJSONString(w, buf.String())
}

func encodeBytes(data []byte, enc ByteStringEncoding) string {
	switch enc {
	case Base64:
		return base64.StdEncoding.EncodeToString(data)
	case Base16:
		return hex.EncodeToString(data)
	default:
		return base64.RawURLEncoding.EncodeToString(data)
	}
}

func writeJSONString(w io.Writer, s string) error {
	var buf bytes.Buffer
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
	_, err := w.Write(buf.Bytes())
	return err
}
