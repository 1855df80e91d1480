package cbor

// ConformanceMode bundles the individual ValidatorOption flags into the
// three levels RFC 8949 describes informally.
type ConformanceMode int

const (
	// ConformanceLax performs only the well-formedness checks the Parser
	// always applies; Validate under this mode only checks for trailing
	// garbage.
	ConformanceLax ConformanceMode = iota
	// ConformanceStrict additionally rejects inappropriate tags, invalid
	// UTF-8 and duplicate map keys. It does not require shortest-form
	// integer/length encoding, and it does not reject a simple value below
	// 32 written in the two-byte form; only ConformanceCanonical does.
	ConformanceStrict
	// ConformanceCanonical is Strict plus shortest-form encoding.
	ConformanceCanonical
)

// Options returns the ValidatorOption set for mode.
func (m ConformanceMode) Options() []ValidatorOption {
	switch m {
	case ConformanceStrict:
		return []ValidatorOption{WithUTF8Check(), WithTagCheck(), WithDuplicateKeyCheck()}
	case ConformanceCanonical:
		return StrictValidatorOptions()
	default:
		return nil
	}
}
