// Package main is the driver CLI named by §6.1: an external collaborator,
// simple and contract-level, not the subject of this module's design
// effort.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/Shibodd/kalcc/internal/errors"
	"github.com/Shibodd/kalcc/internal/ir"
	"github.com/Shibodd/kalcc/internal/parser"
	"github.com/Shibodd/kalcc/internal/trace"
)

func main() {
	traceScan := flag.Bool("ts", false, "enable scanner trace on stderr")
	traceParse := flag.Bool("tp", false, "enable parser trace on stderr")
	traceLower := flag.Bool("tc", false, "enable lowering trace on stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: kalcc [-ts] [-tp] [-tc] <source-file>")
		os.Exit(1)
	}
	path := flag.Arg(0)

	start := time.Now()
	if err := compile(path, *traceScan, *traceParse, *traceLower); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Compilation failed after %s\n", formatDuration(time.Since(start)))
		reportFailure(path, err)
		os.Exit(1)
	}
	color.New(color.FgGreen).Fprintf(os.Stderr, "Successfully compiled %s in %s\n", path, formatDuration(time.Since(start)))
}

func compile(path string, traceScan, traceParse, traceLower bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	scanLog := trace.New(os.Stderr, traceScan)
	tokens, scanErrs := parser.NewScanner(path, string(source), scanLog).ScanTokens()
	if len(scanErrs) > 0 {
		return scanErrs[0]
	}

	parseLog := trace.New(os.Stderr, traceParse)
	root, err := parser.NewParser(path, tokens, parseLog).ParseProgram()
	if err != nil {
		return err
	}
	if root == nil {
		return nil // empty source is a legal, empty program
	}

	lowerLog := trace.New(os.Stderr, traceLower)
	program, err := ir.NewBuilder(lowerLog).Build(root)
	if err != nil {
		return err
	}

	fmt.Print(ir.Print(program))
	return nil
}

// reportFailure prints err to stderr, using the §6.4 diagnostic format
// plus a source-line caret when err carries a compiler position.
func reportFailure(path string, err error) {
	ce, ok := err.(*errors.CompilerError)
	if !ok {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	source, readErr := os.ReadFile(path)
	if readErr != nil {
		fmt.Fprintln(os.Stderr, ce.Error())
		return
	}
	errors.NewReporter(string(source)).Report(os.Stderr, ce)
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
}
