/*
Command ot-merge builds a bilingual font from an Arabic and a Latin
FontForge source.

Usage:

	ot-merge [flags] ARABIC LATIN

Flags may be given before or after the font sources:

	--out-file FILE       OpenType font to write (required)
	--feature-file FILE   feature file of the Arabic font (required)
	--version STRING      version of the font (required)
	--trace LEVEL         trace level [Debug|Info|Error], default Error
	--dump-features FILE  also write the compiled feature text to FILE

Exit code is 1 for usage errors and 2 if the font could not be built.
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/npillmayer/fontmerge"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

const (
	exitUsage = 1
	exitBuild = 2
)

// tracers of the build stages
var tracerKeys = []string{
	"fontmerge",
	"fontmerge.sfd",
	"fontmerge.gen",
	"fontmerge.ot",
	"fontmerge.fea",
}

// tracer traces with key 'fontmerge'
func tracer() tracing.Trace {
	return tracing.Select("fontmerge")
}

var errUsage = errors.New("usage error")

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter": "go",
	}
	for _, key := range tracerKeys {
		conf["trace."+key] = "Error"
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(exitUsage)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	os.Exit(run(os.Args[1:], os.Stderr))
}

// run builds a font as requested by args and returns the exit code.
func run(args []string, out io.Writer) int {
	opts, tlevel, err := parseArgs(args, out)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			pterm.Error.Println(err.Error())
		}
		return exitUsage
	}
	for _, key := range tracerKeys {
		tracing.Select(key).SetTraceLevel(tlevel)
	}
	tracer().Infof("building %s", opts.OutFile)
	if err = fontmerge.Run(opts); err != nil {
		pterm.Error.Println(err.Error())
		return exitBuild
	}
	pterm.Info.Printf("Font written to %s\n", opts.OutFile)
	return 0
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// parseArgs reads flags and the two font sources from args. Flags may be
// interspersed with the positional arguments.
func parseArgs(args []string, out io.Writer) (fontmerge.Options, tracing.TraceLevel, error) {
	var opts fontmerge.Options
	fs := flag.NewFlagSet("ot-merge", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.OutFile, "out-file", "", "OpenType font to write (required)")
	fs.StringVar(&opts.FeatureFile, "feature-file", "", "feature file of the Arabic font (required)")
	fs.StringVar(&opts.Version, "version", "", "version of the font (required)")
	fs.StringVar(&opts.DumpFeatures, "dump-features", "", "also write the compiled feature text to this file")
	tlevel := fs.String("trace", "Error", "Trace level [Debug|Info|Error]")
	fs.Usage = func() {
		fmt.Fprintln(out, "usage: ot-merge [flags] ARABIC LATIN")
		fs.PrintDefaults()
	}
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return opts, tracing.LevelError, err
		}
		rest := fs.Args()
		if terminated(args, rest) {
			positional = append(positional, rest...)
			break
		}
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
	if len(positional) != 2 {
		return opts, tracing.LevelError, fmt.Errorf("%w: expected ARABIC and LATIN font sources, got %d arguments",
			errUsage, len(positional))
	}
	opts.ArabicFile, opts.LatinFile = positional[0], positional[1]
	for _, req := range []struct{ name, value string }{
		{"out-file", opts.OutFile},
		{"feature-file", opts.FeatureFile},
		{"version", opts.Version},
	} {
		if req.value == "" {
			return opts, tracing.LevelError, fmt.Errorf("%w: flag --%s is required", errUsage, req.name)
		}
	}
	var level tracing.TraceLevel
	switch *tlevel {
	case "Debug":
		level = tracing.LevelDebug
	case "Info":
		level = tracing.LevelInfo
	case "Error":
		level = tracing.LevelError
	default:
		return opts, tracing.LevelError, fmt.Errorf("%w: invalid trace level: %s", errUsage, *tlevel)
	}
	return opts, level, nil
}

// terminated reports whether parsing args stopped at "--", leaving rest.
func terminated(args, rest []string) bool {
	n := len(args) - len(rest)
	if n == 0 || args[n-1] != "--" {
		return false
	}
	if n >= 2 { // "--" may be the value of a flag
		prev := args[n-2]
		if prev != "--" && strings.HasPrefix(prev, "-") && !strings.Contains(prev, "=") {
			return false
		}
	}
	return true
}
