package errors

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Reporter renders a single diagnostic to a stream, with an optional
// source-line context marker under the offending column, styled the way
// this codebase's CLI tools color their error output.
type Reporter struct {
	source []string // source split into lines, for context rendering
}

// NewReporter builds a Reporter over the given source text, used only to
// recover the offending line for the caret marker.
func NewReporter(source string) *Reporter {
	return &Reporter{source: strings.Split(source, "\n")}
}

// Report writes err's diagnostic to w: the fixed "Error at Ln X Col Y:
// message" line (§6.4), bolded and colored red, followed by a source
// context line and a caret marker when the offending line is available.
func (r *Reporter) Report(w io.Writer, err *CompilerError) {
	bold := color.New(color.FgRed, color.Bold)
	bold.Fprintln(w, err.Error())

	line := err.Pos.Line
	if line >= 1 && line <= len(r.source) {
		fmt.Fprintln(w, r.source[line-1])
		col := err.Pos.Column
		if col < 1 {
			col = 1
		}
		fmt.Fprintln(w, strings.Repeat(" ", col-1)+color.RedString("^"))
	}
}
