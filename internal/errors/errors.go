// Package errors defines the compiler's diagnostic taxonomy (§7) and its
// single wire format (§6.4): "Error at Ln <line> Col <column>: <message>".
package errors

import (
	"fmt"

	"github.com/Shibodd/kalcc/internal/ast"
)

// Kind discriminates the fatal, compile-time error taxonomy of §7. Every
// kind aborts the current compilation on first occurrence; there is no
// warning category and no recovery.
type Kind int

const (
	UnknownVariable Kind = iota
	RedefinedVariable
	UnknownFunction
	ArityMismatch
	RedefinedFunction
	VerifierFailure
	ParseError
	ScanError
)

func (k Kind) String() string {
	switch k {
	case UnknownVariable:
		return "UnknownVariable"
	case RedefinedVariable:
		return "RedefinedVariable"
	case UnknownFunction:
		return "UnknownFunction"
	case ArityMismatch:
		return "ArityMismatch"
	case RedefinedFunction:
		return "RedefinedFunction"
	case VerifierFailure:
		return "VerifierFailure"
	case ParseError:
		return "ParseError"
	case ScanError:
		return "ScanError"
	default:
		return "Unknown"
	}
}

// CompilerError is the sole error value the compiler threads up the
// lowering (and scanning/parsing) call chain. It implements error.
type CompilerError struct {
	Kind    Kind
	Pos     ast.Position
	Message string
}

func (e *CompilerError) Error() string {
	return fmt.Sprintf("Error at %s: %s", e.Pos, e.Message)
}

// New builds a CompilerError, with Message formatted printf-style.
func New(kind Kind, pos ast.Position, format string, args ...any) *CompilerError {
	return &CompilerError{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func UnknownVariableErr(pos ast.Position, name string) *CompilerError {
	return New(UnknownVariable, pos, "Unknown variable name: %s", name)
}

func RedefinedVariableErr(pos ast.Position, name string) *CompilerError {
	return New(RedefinedVariable, pos, "Redefinition of variable %s", name)
}

func UnknownFunctionErr(pos ast.Position, name string) *CompilerError {
	return New(UnknownFunction, pos, "Called unknown function %s", name)
}

func ArityMismatchErr(pos ast.Position, expected, got int) *CompilerError {
	return New(ArityMismatch, pos, "Function call argument count mismatch: expecting %d, got %d", expected, got)
}

func RedefinedFunctionErr(pos ast.Position, name string) *CompilerError {
	return New(RedefinedFunction, pos, "Redefinition of function %s", name)
}

func VerifierFailureErr(pos ast.Position, name string, reason string) *CompilerError {
	return New(VerifierFailure, pos, "Function %s failed verification: %s", name, reason)
}
