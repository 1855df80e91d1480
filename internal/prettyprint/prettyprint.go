// Package prettyprint renders a CBOR item, read through a Cursor, as RFC
// 8949 §8 diagnostic notation. It is a pure consumer of the public
// Parser/Cursor surface: get_type, the extractors, enter/leave container,
// and advance, per spec §6.2.
package prettyprint

import (
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	cbor "github.com/cbor-stream/cbor"
)

// Write renders c's current item, and everything nested inside it, to w.
func Write(w io.Writer, c *cbor.Cursor) error {
	return writeItem(w, c)
}

func writeItem(w io.Writer, c *cbor.Cursor) error {
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
		if _, err := fmt.Fprintf(w, "%t", v); err != nil {
			return err
		}
		return c.AdvanceFixed()
	case cbor.KindNull:
		if _, err := io.WriteString(w, "null"); err != nil {
			return err
		}
		return c.AdvanceFixed()
	case cbor.KindUndefined:
		if _, err := io.WriteString(w, "undefined"); err != nil {
			return err
		}
		return c.AdvanceFixed()
	case cbor.KindSimple:
		v, err := c.Simple()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "simple(%d)", v); err != nil {
			return err
		}
		return c.AdvanceFixed()
	case cbor.KindFloat16, cbor.KindFloat32, cbor.KindFloat64:
		f, err := c.FloatValue()
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, formatFloat(f)); err != nil {
			return err
		}
		return c.AdvanceFixed()
	case cbor.KindByteString:
		data, err := c.DupString()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "h'%s'", hex.EncodeToString(data))
		return err
	case cbor.KindTextString:
		data, err := c.DupString()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s", strconv.Quote(string(data)))
		return err
	case cbor.KindArray:
		return writeArray(w, c)
	case cbor.KindMap:
		return writeMap(w, c)
	case cbor.KindTag:
		return writeTag(w, c)
	default:
		return cbor.KindError(cbor.ErrInternalError)
	}
}

func writeArray(w io.Writer, c *cbor.Cursor) error {
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
			if _, err := io.WriteString(w, ", "); err != nil {
				return err
			}
		}
		first = false
		if err := writeItem(w, &child); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "]"); err != nil {
		return err
	}
	return c.LeaveContainer(&child)
}

func writeMap(w io.Writer, c *cbor.Cursor) error {
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
			if _, err := io.WriteString(w, ", "); err != nil {
				return err
			}
		}
		first = false
		if err := writeItem(w, &child); err != nil {
			return err
		}
		if _, err := io.WriteString(w, ": "); err != nil {
			return err
		}
		if err := writeItem(w, &child); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, "}"); err != nil {
		return err
	}
	return c.LeaveContainer(&child)
}

func writeTag(w io.Writer, c *cbor.Cursor) error {
	tag, err := c.Tag()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%d(", tag); err != nil {
		return err
	}
	if err := c.EnterTag(); err != nil {
		return err
	}
	if err := writeItem(w, c); err != nil {
		return err
	}
	_, err = io.WriteString(w, ")")
	return err
}

// formatFloat matches RFC 8949 §8's diagnostic-notation float literals:
// shortest round-tripping decimal form, with the named ±Infinity/NaN
// tokens instead of Go's own spellings.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".e") {
			// 1.0 prints as "1.0", not the integer literal "1".
			s += ".0"
		}
		return s
	}
}
