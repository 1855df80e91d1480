// Command cborconv reads a CBOR file and converts it to JSON on stdout.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	cbor "github.com/cbor-stream/cbor"
	"github.com/cbor-stream/cbor/internal/jsonconv"
)

// CLI is the cborconv command line.
type CLI struct {
	Input   string           `arg:"" help:"CBOR file to convert."`
	Mode    string           `short:"m" help:"Conformance mode: lax, strict or canonical." default:"lax" enum:"lax,strict,canonical"`
	Bytes   string           `short:"b" help:"Byte-string representation: base64url, base64 or base16." default:"base64url" enum:"base64url,base64,base16"`
	Version kong.VersionFlag `help:"Print version information and quit."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("cborconv"),
		kong.Description("Convert a CBOR file to JSON."),
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
	opts := jsonconv.Options{ByteStrings: byteEncoding(cli.Bytes)}
	if err := jsonconv.Write(out, &root, opts); err != nil {
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

func byteEncoding(s string) jsonconv.ByteStringEncoding {
	switch s {
	case "base64":
		return jsonconv.Base64
	case "base16":
		return jsonconv.Base16
	default:
		return jsonconv.Base64URL
	}
}
