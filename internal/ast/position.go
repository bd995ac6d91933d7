package ast

import "fmt"

// Position is the location carrier attached to every AST node. It is used
// only for diagnostics: lowering never inspects it for semantics.
type Position struct {
	Filename string
	Offset   int // 0-based absolute byte index into the source
	Line     int // 1-based
	Column   int // 1-based
}

// String renders the position the way diagnostics quote it: "Ln X Col Y".
func (p Position) String() string {
	return fmt.Sprintf("Ln %d Col %d", p.Line, p.Column)
}
