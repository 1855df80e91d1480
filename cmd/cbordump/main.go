// Command cbordump reads a CBOR file and pretty-prints it to stdout in RFC
// 8949 §8 diagnostic notation.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	cbor "github.com/cbor-stream/cbor"
	"github.com/cbor-stream/cbor/internal/prettyprint"
)

// CLI is the cbordump command line: a single positional input file plus the
// same strict/canonical mode switch the core Validator exposes.
type CLI struct {
	Input   string           `arg:"" help:"CBOR file to dump."`
	Mode    string           `short:"m" help:"Conformance mode: lax, strict or canonical." default:"lax" enum:"lax,strict,canonical"`
	Version kong.VersionFlag `help:"Print version information and quit."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("cbordump"),
		kong.Description("Dump a CBOR file as diagnostic notation."),
		kong.Vars{"version": cbor.VersionInfo()},
	)
	os.Exit(run(&cli))
}

func run(cli *CLI) int {
	data, err := os.ReadFile(cli.Input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cli.Input, err)
		return 1
	}

	mode := conformanceMode(cli.Mode)

	// Validate roots and consumes its own parser; printing needs a second,
	// freshly rooted one over the same bytes.
	validateSrc := cbor.NewBufferSource(data)
	validateParser := cbor.NewParser(validateSrc)
	if err := cbor.Validate(validateParser, mode.Options()...); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", cli.Input, err)
		return 2
	}

	src := cbor.NewBufferSource(data)
	p := cbor.NewParser(src)
	root, err := p.Root()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", cli.Input, err)
		return 2
	}

	out := bufio.NewWriter(os.Stdout)
	if err := prettyprint.Write(out, &root); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", cli.Input, err)
		return 2
	}
	out.WriteByte('\n')
	if err := out.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cli.Input, err)
		return 2
	}
	return 0
}

func conformanceMode(s string) cbor.ConformanceMode {
	switch s {
	case "strict":
		return cbor.ConformanceStrict
	case "canonical":
		return cbor.ConformanceCanonical
	default:
		return cbor.ConformanceLax
	}
}
