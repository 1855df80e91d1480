package cbor

import "unicode/utf8"

// ValidatorOptions selects which of the strictness checks in ​4.6 Validate
// applies on top of the well-formedness checks the Parser always enforces.
// Each defaults to off; a caller wanting RFC 8949 "deterministic encoding"
// validation should enable all of them.
type ValidatorOptions struct {
	canonical          bool
	checkUTF8          bool
	checkTags          bool
	checkDuplicateKeys bool
	allowMultipleRoots bool
}

// ValidatorOption configures a Validate call.
type ValidatorOption func(*ValidatorOptions)

// WithCanonicalCheck rejects integers, lengths, tag numbers and simple
// values that were not encoded in their shortest possible form.
func WithCanonicalCheck() ValidatorOption {
	return func(o *ValidatorOptions) { o.canonical = true }
}

// WithUTF8Check validates that every text string's content is well-formed
// UTF-8 (no overlong sequences, no surrogate code points, nothing above
// U+10FFFF), matching unicode/utf8's definition of validity.
func WithUTF8Check() ValidatorOption {
	return func(o *ValidatorOptions) { o.checkUTF8 = true }
}

// WithTagCheck rejects a known semantic tag applied to a type it cannot
// describe (e.g. tag 0, a date/time string, applied to a byte string).
func WithTagCheck() ValidatorOption {
	return func(o *ValidatorOptions) { o.checkTags = true }
}

// WithDuplicateKeyCheck rejects maps containing the same key twice. Keys
// are compared by decoded value for text strings and integers; other key
// kinds are not deduplicated.
func WithDuplicateKeyCheck() ValidatorOption {
	return func(o *ValidatorOptions) { o.checkDuplicateKeys = true }
}

// WithMultipleRootValues allows more than one top-level data item, the way
// a log of concatenated CBOR items or a CBOR sequence (RFC 8742) would.
// Without it, Validate reports ErrGarbageAtEnd if anything follows the
// first top-level item.
func WithMultipleRootValues() ValidatorOption {
	return func(o *ValidatorOptions) { o.allowMultipleRoots = true }
}

// StrictValidatorOptions enables every available check: the conformance
// level ConformanceCanonical maps to.
func StrictValidatorOptions() []ValidatorOption {
	return []ValidatorOption{WithCanonicalCheck(), WithUTF8Check(), WithTagCheck(), WithDuplicateKeyCheck()}
}

var tagExpectedKinds = map[CborTag][]Kind{
	TagDateTimeString:    {KindTextString},
	TagUnixTime:          {KindUint, KindNegInt, KindFloat16, KindFloat32, KindFloat64},
	TagUnsignedBignum:    {KindByteString},
	TagNegativeBignum:    {KindByteString},
	TagDecimalFraction:   {KindArray},
	TagBigFloat:          {KindArray},
	TagExpectedBase64URL: {KindByteString},
	TagExpectedBase64:    {KindByteString},
	TagExpectedBase16:    {KindByteString},
	TagEncodedCborData:   {KindByteString},
	TagURI:               {KindTextString},
	TagBase64URL:         {KindTextString},
	TagBase64:            {KindTextString},
	TagRegularExpression: {KindTextString},
	TagMIMEMessage:       {KindTextString},
}

func checkTagAppropriate(tag CborTag, kind Kind) error {
	if tag == TagSelfDescribedCbor {
		return nil
	}
	want, known := tagExpectedKinds[tag]
	if !known {
		return nil
	}
	for _, k := range want {
		if k == kind {
			return nil
		}
	}
	return KindError(ErrInappropriateTagForType)
}

// Validate walks the item(s) produced by p, applying every enabled check
// in opts on top of the well-formedness the Parser already guarantees. It
// consumes p: on success, p is positioned at the end of the validated
// input (all root items, if WithMultipleRootValues was given).
func Validate(p *Parser, opts ...ValidatorOption) error {
	var o ValidatorOptions
	for _, opt := range opts {
		opt(&o)
	}
	v := &validator{opts: o}

	root, err := p.Root()
	if err != nil {
		return err
	}
	for !root.AtEnd() {
		if err := v.validateItem(&root); err != nil {
			return err
		}
		if !o.allowMultipleRoots {
			break
		}
	}
	if !root.AtEnd() {
		return newError(ErrGarbageAtEnd)
	}
	return nil
}

type validator struct {
	opts ValidatorOptions
}

func (v *validator) checkCanonicalHead(c *Cursor) error {
	if c.headLen != headLenForValue(c.value) {
		return c.fail(ErrNonCanonicalEncoding)
	}
	return nil
}

// validateItem validates the item c currently points at (recursing into
// containers, tags and chunked strings as needed) and leaves c positioned
// at the following sibling.
func (v *validator) validateItem(c *Cursor) error {
	switch c.typ {
	case KindInvalid:
		return c.fail(ErrAdvancePastEOF)
	case KindTag:
		return v.validateTag(c)
	case KindArray:
		return v.validateArray(c)
	case KindMap:
		return v.validateMap(c)
	case KindByteString, KindTextString:
		return v.validateString(c)
	case KindSimple:
		if _, err := c.Simple(); err != nil {
			return err
		}
		if v.opts.canonical {
			if err := v.checkCanonicalHead(c); err != nil {
				return err
			}
		}
		return c.AdvanceFixed()
	case KindFloat16, KindFloat32, KindFloat64:
		// A float's head value is its bit pattern, not an integer or a
		// length, so the shortest-form head check does not apply.
		return c.AdvanceFixed()
	default: // uint, negint, bool, null, undefined
		if v.opts.canonical {
			if err := v.checkCanonicalHead(c); err != nil {
				return err
			}
		}
		return c.AdvanceFixed()
	}
}

func (v *validator) validateTag(c *Cursor) error {
	tag, err := c.Tag()
	if err != nil {
		return err
	}
	if v.opts.canonical {
		if err := v.checkCanonicalHead(c); err != nil {
			return err
		}
	}
	if err := c.stepPastTagHead(); err != nil {
		return err
	}
	if v.opts.checkTags {
		if err := checkTagAppropriate(CborTag(tag), c.typ); err != nil {
			return c.fail(Kind(err))
		}
	}
	return v.validateItem(c)
}

func (v *validator) validateArray(c *Cursor) error {
	if v.opts.canonical && c.IsLengthKnown() {
		if err := v.checkCanonicalHead(c); err != nil {
			return err
		}
	}
	child, err := c.EnterContainer()
	if err != nil {
		return err
	}
	for !child.AtEnd() {
		if err := v.validateItem(&child); err != nil {
			return err
		}
	}
	return c.LeaveContainer(&child)
}

func (v *validator) validateMap(c *Cursor) error {
	if v.opts.canonical && c.IsLengthKnown() {
		if err := v.checkCanonicalHead(c); err != nil {
			return err
		}
	}
	child, err := c.EnterContainer()
	if err != nil {
		return err
	}

	var seenText map[string]struct{}
	var seenInt map[intKey]struct{}
	if v.opts.checkDuplicateKeys {
		seenText = make(map[string]struct{})
		seenInt = make(map[intKey]struct{})
	}

	for !child.AtEnd() {
		if err := v.validateMapKey(&child, seenText, seenInt); err != nil {
			return err
		}
		if err := v.validateItem(&child); err != nil {
			return err
		}
	}
	return c.LeaveContainer(&child)
}

// intKey identifies an integer map key by sign and raw magnitude rather
// than by its signed value, so a key whose magnitude doesn't fit in int64
// (fully valid per major types 0/1, which cover 0..2^64-1 and -1..-2^64)
// can still be tracked for duplicate detection without going through the
// range-checked Int64 conversion.
type intKey struct {
	neg bool
	mag uint64
}

// validateMapKey validates and advances past one map key, additionally
// checking it against keys already seen at this level when duplicate-key
// checking is enabled.
func (v *validator) validateMapKey(c *Cursor, seenText map[string]struct{}, seenInt map[intKey]struct{}) error {
	switch c.typ {
	case KindTextString:
		if v.opts.canonical && c.IsLengthKnown() {
			if err := v.checkCanonicalHead(c); err != nil {
				return err
			}
		}
		key, err := c.DupString()
		if err != nil {
			return err
		}
		if v.opts.checkUTF8 && !utf8.Valid(key) {
			return c.fail(ErrInvalidUtf8TextString)
		}
		if seenText != nil {
			if _, dup := seenText[string(key)]; dup {
				return c.fail(ErrDuplicateObjectKeys)
			}
			seenText[string(key)] = struct{}{}
		}
		return nil
	case KindUint, KindNegInt:
		if seenInt != nil {
			key := intKey{neg: c.typ == KindNegInt, mag: c.value}
			if _, dup := seenInt[key]; dup {
				return c.fail(ErrDuplicateObjectKeys)
			}
			seenInt[key] = struct{}{}
		}
		return v.validateItem(c)
	default:
		return v.validateItem(c)
	}
}

func (v *validator) validateString(c *Cursor) error {
	if v.opts.canonical && c.IsLengthKnown() {
		if err := v.checkCanonicalHead(c); err != nil {
			return err
		}
	}
	if c.typ == KindTextString && v.opts.checkUTF8 {
		data, err := c.DupString()
		if err != nil {
			return err
		}
		if !utf8.Valid(data) {
			return c.fail(ErrInvalidUtf8TextString)
		}
		return nil
	}
	return c.AdvanceFixed()
}
