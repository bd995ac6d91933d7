package ast

import (
	"fmt"
	"strings"
)

// Number is a constant double literal.
type Number struct {
	Pos, EndPos Position
	Value       float64
}

func (n *Number) String() string { return fmt.Sprintf("%g", n.Value) }

// Variable is a reference to a bound identifier.
type Variable struct {
	Pos, EndPos Position
	Name        string
}

func (v *Variable) String() string { return v.Name }

// Binary is a two-operand arithmetic or comparison expression.
type Binary struct {
	Pos, EndPos Position
	Op          BinaryOp
	Left, Right Expr
}

func (b *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

// Unary is a one-operand expression. The language has exactly one
// operator (numeric negation).
type Unary struct {
	Pos, EndPos Position
	Op          UnaryOp
	Operand     Expr
}

func (u *Unary) String() string { return fmt.Sprintf("(%s%s)", u.Op, u.Operand) }

// Call invokes a declared function by name with an ordered argument list.
type Call struct {
	Pos, EndPos Position
	Callee      string
	Args        []Expr
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(args, ", "))
}

// If is a three-armed conditional expression; Else is mandatory (§3.2).
type If struct {
	Pos, EndPos     Position
	Cond, Then, Else Expr
}

func (i *If) String() string {
	return fmt.Sprintf("if %s then %s else %s", i.Cond, i.Then, i.Else)
}

// For is a counted loop: `for Init, Cond, Step in Body`. Init and Step
// are Assignments sharing the same induction-variable name (§4.5).
type For struct {
	Pos, EndPos Position
	Init        *Assignment
	Cond        Expr
	Step        *Assignment
	Body        Expr
}

func (f *For) String() string {
	return fmt.Sprintf("for %s, %s, %s in %s", f.Init, f.Cond, f.Step, f.Body)
}

// While is a condition-guarded loop.
type While struct {
	Pos, EndPos Position
	Cond, Body  Expr
}

func (w *While) String() string { return fmt.Sprintf("while %s in %s", w.Cond, w.Body) }

// Assignment stores Value into the slot named by Name and yields the
// stored value (§4.7).
type Assignment struct {
	Pos, EndPos Position
	Name        string
	Value       Expr
}

func (a *Assignment) String() string { return fmt.Sprintf("%s = %s", a.Name, a.Value) }

// VarDecl is one `name = init` binding inside a Var node.
type VarDecl struct {
	Pos, EndPos Position
	Name        string
	Init        Expr
}

// Var installs an ordered list of bindings, each initialiser visible to
// later initialisers in the same Var (§12 supplemented behavior), then
// lowers Body in the enclosing scope extended with those bindings.
type Var struct {
	Pos, EndPos Position
	Decls       []VarDecl
	Body        Expr
}

func (v *Var) String() string {
	parts := make([]string, len(v.Decls))
	for i, d := range v.Decls {
		parts[i] = fmt.Sprintf("%s = %s", d.Name, d.Init)
	}
	return fmt.Sprintf("var %s in %s", strings.Join(parts, ", "), v.Body)
}

// Composite lowers Current for side effects and yields Next's value when
// Next is present, otherwise Current's value (§4.7).
type Composite struct {
	Pos, EndPos Position
	Current     Expr
	Next        Expr // nil when absent
}

func (c *Composite) String() string {
	if c.Next == nil {
		return c.Current.String()
	}
	return fmt.Sprintf("(%s; %s)", c.Current, c.Next)
}

// Prototype declares a function's name and parameter list without a
// body. `extern` statements parse to a bare Prototype; a Function also
// owns one as its signature (§4.8).
type Prototype struct {
	Pos, EndPos Position
	Name        string
	Params      []string
}

func (p *Prototype) String() string {
	return fmt.Sprintf("def %s(%s)", p.Name, strings.Join(p.Params, " "))
}

// Function pairs a Prototype with a body expression (§4.8).
type Function struct {
	Pos, EndPos Position
	Proto       *Prototype
	Body        Expr
}

func (f *Function) String() string { return fmt.Sprintf("%s %s", f.Proto, f.Body) }

// Sequence is a linked list of top-level items (§4.9). Current holds a
// Prototype, a Function, a nested Sequence, or a not-yet-promoted Expr;
// Next is nil at the end of the list.
type Sequence struct {
	Pos, EndPos Position
	Current     Item
	Next        *Sequence
}

func (s *Sequence) String() string {
	if s.Next == nil {
		return s.Current.String()
	}
	return fmt.Sprintf("%s; %s", s.Current, s.Next)
}
