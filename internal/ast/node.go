package ast

// Node is implemented by every AST node. Diagnostics read NodePos only;
// lowering also copies NodePos/NodeEndPos onto the nodes it synthesises
// for §4.9 promotion. NodeType and String exist for tracing and tests,
// mirroring how the node kinds are inspected elsewhere in this
// codebase's AST packages.
type Node interface {
	NodePos() Position
	NodeEndPos() Position
	NodeType() NodeType
	String() string
}

// Item is anything that may sit directly in a Sequence: a Prototype, a
// Function, a nested Sequence, or a bare top-level Expr awaiting
// promotion (§4.9). This
// mirrors the source language's single RootAST hierarchy, where every
// ExprAST is-a RootAST.
type Item interface {
	Node
	isItem()
}

func (n *Number) NodePos() Position    { return n.Pos }
func (n *Number) NodeEndPos() Position { return n.EndPos }
func (*Number) NodeType() NodeType     { return NUMBER }
func (*Number) isItem()                {}
func (*Number) isExpr()                {}

func (v *Variable) NodePos() Position    { return v.Pos }
func (v *Variable) NodeEndPos() Position { return v.EndPos }
func (*Variable) NodeType() NodeType     { return VARIABLE }
func (*Variable) isItem()                {}
func (*Variable) isExpr()                {}

func (b *Binary) NodePos() Position    { return b.Pos }
func (b *Binary) NodeEndPos() Position { return b.EndPos }
func (*Binary) NodeType() NodeType     { return BINARY }
func (*Binary) isItem()                {}
func (*Binary) isExpr()                {}

func (u *Unary) NodePos() Position    { return u.Pos }
func (u *Unary) NodeEndPos() Position { return u.EndPos }
func (*Unary) NodeType() NodeType     { return UNARY }
func (*Unary) isItem()                {}
func (*Unary) isExpr()                {}

func (c *Call) NodePos() Position    { return c.Pos }
func (c *Call) NodeEndPos() Position { return c.EndPos }
func (*Call) NodeType() NodeType     { return CALL }
func (*Call) isItem()                {}
func (*Call) isExpr()                {}

func (i *If) NodePos() Position    { return i.Pos }
func (i *If) NodeEndPos() Position { return i.EndPos }
func (*If) NodeType() NodeType     { return IF }
func (*If) isItem()                {}
func (*If) isExpr()                {}

func (f *For) NodePos() Position    { return f.Pos }
func (f *For) NodeEndPos() Position { return f.EndPos }
func (*For) NodeType() NodeType     { return FOR }
func (*For) isItem()                {}
func (*For) isExpr()                {}

func (w *While) NodePos() Position    { return w.Pos }
func (w *While) NodeEndPos() Position { return w.EndPos }
func (*While) NodeType() NodeType     { return WHILE }
func (*While) isItem()                {}
func (*While) isExpr()                {}

func (a *Assignment) NodePos() Position    { return a.Pos }
func (a *Assignment) NodeEndPos() Position { return a.EndPos }
func (*Assignment) NodeType() NodeType     { return ASSIGNMENT }
func (*Assignment) isItem()                {}
func (*Assignment) isExpr()                {}

func (v *Var) NodePos() Position    { return v.Pos }
func (v *Var) NodeEndPos() Position { return v.EndPos }
func (*Var) NodeType() NodeType     { return VAR }
func (*Var) isItem()                {}
func (*Var) isExpr()                {}

func (c *Composite) NodePos() Position    { return c.Pos }
func (c *Composite) NodeEndPos() Position { return c.EndPos }
func (*Composite) NodeType() NodeType     { return COMPOSITE }
func (*Composite) isItem()                {}
func (*Composite) isExpr()                {}

func (p *Prototype) NodePos() Position    { return p.Pos }
func (p *Prototype) NodeEndPos() Position { return p.EndPos }
func (*Prototype) NodeType() NodeType     { return PROTOTYPE }
func (*Prototype) isItem()                {}

func (f *Function) NodePos() Position    { return f.Pos }
func (f *Function) NodeEndPos() Position { return f.EndPos }
func (*Function) NodeType() NodeType     { return FUNCTION }
func (*Function) isItem()                {}

func (s *Sequence) NodePos() Position    { return s.Pos }
func (s *Sequence) NodeEndPos() Position { return s.EndPos }
func (*Sequence) NodeType() NodeType     { return SEQUENCE }
func (*Sequence) isItem()                {}
