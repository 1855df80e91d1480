package cbor

import "fmt"

// ErrorKind enumerates every failure mode the codec can report. A single
// closed enum (rather than a sentinel var per failure, as the historical
// reader/writer used) lets callers switch on Kind() without chains of
// errors.Is, and gives cbor_error_string-style messages for free.
type ErrorKind int

const (
	// NoError is the zero value; it is never returned by a failing operation.
	NoError ErrorKind = iota

	// Well-formedness.
	ErrUnexpectedEOF     // source exhausted mid-item
	ErrBreakMissingAtEOF // indefinite-length item never saw its break
	ErrUnexpectedBreak   // break byte outside an indefinite-length context
	ErrUnknownType       // major 7 additional info with no defined meaning
	ErrIllegalType       // chunked-string chunk major type mismatch
	ErrIllegalNumber     // reserved additional-information value (28/29/30)
	ErrIllegalSimpleType // simple value in the reserved 24..31 range

	// Strictness (only reported when the corresponding strict flag is set).
	ErrUnknownSimpleType      // ai=24 value < 32, non-canonical simple value
	ErrUnknownTag             // strict mode: tag number not recognized
	ErrInappropriateTagForType
	ErrDuplicateObjectKeys
	ErrInvalidUtf8TextString
	ErrNonCanonicalEncoding // overlong integer/length/tag encoding

	// Range/resource.
	ErrDataTooLarge   // overflow computing a total string/container length
	ErrNestingTooDeep // recursion cap exceeded
	ErrOutOfMemory    // bounded sink is full
	ErrIO             // source/sink callback failure

	// Programming errors.
	ErrAdvancePastEOF
	ErrContainerNotCompleted
	ErrJsonObjectKeyNotString

	// Internal.
	ErrInternalError
	ErrGarbageAtEnd
)

var errorStrings = [...]string{
	NoError:                    "no error",
	ErrUnexpectedEOF:           "unexpected end of input",
	ErrBreakMissingAtEOF:       "indefinite-length item missing its break code",
	ErrUnexpectedBreak:         "unexpected break code",
	ErrUnknownType:             "unknown major type 7 additional information",
	ErrIllegalType:             "chunk major type does not match enclosing chunked string",
	ErrIllegalNumber:           "reserved additional information value",
	ErrIllegalSimpleType:       "simple value encoded in the reserved range",
	ErrUnknownSimpleType:       "simple value not in shortest-form encoding",
	ErrUnknownTag:              "unrecognized semantic tag",
	ErrInappropriateTagForType: "tag number not appropriate for the tagged item's type",
	ErrDuplicateObjectKeys:     "duplicate key in map",
	ErrInvalidUtf8TextString:   "invalid UTF-8 in text string",
	ErrNonCanonicalEncoding:    "integer, length or tag not encoded in its shortest form",
	ErrDataTooLarge:            "computed length exceeds representable size",
	ErrNestingTooDeep:          "maximum nesting depth exceeded",
	ErrOutOfMemory:             "sink has insufficient capacity",
	ErrIO:                      "I/O error from source or sink",
	ErrAdvancePastEOF:          "advance called with no current item",
	ErrContainerNotCompleted:   "container closed before all declared items were written",
	ErrJsonObjectKeyNotString:  "JSON object key did not decode to a string",
	ErrInternalError:           "internal error",
	ErrGarbageAtEnd:            "trailing data after the top-level item",
}

// String returns the stable, human-readable message for kind.
func (k ErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(errorStrings) && errorStrings[k] != "" {
		return errorStrings[k]
	}
	return "unrecognized error kind"
}

// Error is the concrete error type returned by every core operation. It
// wraps an optional underlying cause (typically an I/O error from a caller
// source or sink) and the offset at which the failure was detected, when
// known.
type Error struct {
	Kind   ErrorKind
	Offset int64 // -1 when not meaningful (e.g. encoder-side errors)
	Cause  error
}

func newError(kind ErrorKind) *Error {
	return &Error{Kind: kind, Offset: -1}
}

func newErrorAt(kind ErrorKind, offset int64) *Error {
	return &Error{Kind: kind, Offset: offset}
}

func wrapIOError(cause error) *Error {
	return &Error{Kind: ErrIO, Offset: -1, Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cbor: %s: %v", e.Kind, e.Cause)
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("cbor: %s (offset %d)", e.Kind, e.Offset)
	}
	return "cbor: " + e.Kind.String()
}

// Unwrap exposes the wrapped I/O cause, if any, to errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, cbor.KindError(cbor.ErrUnexpectedEOF)).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// KindError returns a bare sentinel *Error for kind, suitable for use with
// errors.Is.
func KindError(kind ErrorKind) error {
	return newError(kind)
}

// Kind extracts the ErrorKind from err, returning ErrInternalError if err is
// not a *Error produced by this package, and NoError if err is nil.
func Kind(err error) ErrorKind {
	if err == nil {
		return NoError
	}
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return ErrInternalError
}
