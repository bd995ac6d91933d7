package ir

import (
	"fmt"

	"github.com/Shibodd/kalcc/internal/ast"
	"github.com/Shibodd/kalcc/internal/errors"
	"github.com/Shibodd/kalcc/internal/trace"
)

// Builder threads the compilation context of §2 item 3 and §5: the IR
// module under construction, the active insertion point, the variable
// scope, and the unique-id counters, all as a single explicitly-passed
// value with no process-global state.
type Builder struct {
	program *Program

	currentFunc  *Function
	currentBlock *BasicBlock

	// scope is the single flat map of §3.3/§9: name -> stack slot. It is
	// replaced (never popped) at function entry, so Var/For bindings
	// leak into the rest of the enclosing function by design — see
	// DESIGN.md's "Open Questions".
	scope map[string]*Value

	valueCounter int
	blockCounter int
	anonCounter  int

	tr *trace.Logger
}

func NewBuilder(tr *trace.Logger) *Builder {
	return &Builder{program: NewProgram(), scope: make(map[string]*Value), tr: tr}
}

// Build lowers an entire AST root into an IR Program (§4.9). It is the
// only exported entry point into the lowering engine.
func (b *Builder) Build(seq *ast.Sequence) (*Program, error) {
	for cur := seq; cur != nil; cur = cur.Next {
		if err := b.buildItem(cur.Current, 0); err != nil {
			return nil, err
		}
	}
	return b.program, nil
}

func (b *Builder) buildItem(item ast.Item, depth int) error {
	switch n := item.(type) {
	case *ast.Prototype:
		return b.declarePrototype(n)
	case *ast.Function:
		return b.buildFunctionDef(n, depth)
	case *ast.Sequence:
		_, err := b.Build(n)
		return err
	default:
		expr, ok := item.(ast.Expr)
		if !ok {
			panic(fmt.Sprintf("ir: unexpected top-level item type %T", item))
		}
		return b.promoteAndBuild(expr, depth)
	}
}

// promoteAndBuild implements §4.9's promotion: a free-standing top-level
// expression becomes the body of a fresh zero-arg function named
// __anon_expr<N>, which is then lowered. The wrapping Function is not
// written back into the Sequence: after Build, the Sequence's Current
// still holds the original expression.
func (b *Builder) promoteAndBuild(expr ast.Expr, depth int) error {
	name := fmt.Sprintf("__anon_expr%d", b.anonCounter)
	b.anonCounter++
	b.tr.Log(depth, "promote", name)
	proto := &ast.Prototype{Pos: expr.NodePos(), EndPos: expr.NodeEndPos(), Name: name, Params: nil}
	fn := &ast.Function{Pos: expr.NodePos(), EndPos: expr.NodeEndPos(), Proto: proto, Body: expr}
	return b.buildFunctionDef(fn, depth)
}

// declarePrototype realizes a bare `extern` (§12): it installs a
// function-table entry with no body. Re-declaring the same name is not
// an error; only defining a body twice is (§4.8).
func (b *Builder) declarePrototype(proto *ast.Prototype) error {
	if _, exists := b.program.Functions[proto.Name]; exists {
		return nil
	}
	fn := &Function{Name: proto.Name, Params: proto.Params, DefPos: proto.Pos}
	b.program.Functions[proto.Name] = fn
	b.program.FunctionOrder = append(b.program.FunctionOrder, proto.Name)
	return nil
}

// buildFunctionDef implements §4.8's Function lowering: resolve-or-create
// the IR function, reject a second definition, create the entry block,
// clear the variable scope, bind parameters, lower the body, emit the
// return, and verify.
func (b *Builder) buildFunctionDef(fnNode *ast.Function, depth int) error {
	proto := fnNode.Proto
	b.tr.Log(depth, "function", proto.Name)

	fn, exists := b.program.Functions[proto.Name]
	if !exists {
		fn = &Function{Name: proto.Name, Params: proto.Params, DefPos: fnNode.Pos}
		b.program.Functions[proto.Name] = fn
		b.program.FunctionOrder = append(b.program.FunctionOrder, proto.Name)
	}
	if fn.Defined {
		return errors.RedefinedFunctionErr(fnNode.Pos, proto.Name)
	}
	fn.Defined = true
	fn.Params = proto.Params
	fn.DefPos = fnNode.Pos

	entry := &BasicBlock{Label: "entry"}
	fn.Entry = entry
	fn.Blocks = []*BasicBlock{entry}

	b.currentFunc = fn
	b.currentBlock = entry
	b.scope = make(map[string]*Value) // cleared at function entry (§4.8/§9), never popped elsewhere

	for _, p := range proto.Params {
		slot := b.newValue(Double)
		b.allocaInEntry(slot)
		param := &Value{Name: p, Type: Double}
		b.currentBlock.addInstruction(&StoreInst{Value: param, Addr: slot})
		b.scope[p] = slot
	}

	bodyVal, err := b.lowerExpr(fnNode.Body, depth+1)
	if err != nil {
		return err
	}
	b.setTerminator(&RetTerm{Value: bodyVal})

	return b.verifyFunction(fn)
}

// verifyFunction stands in for the external backend's function verifier
// named by §4.8; a failure here indicates a bug in this lowering pass,
// not in the source program (§7 VerifierFailure).
func (b *Builder) verifyFunction(fn *Function) error {
	if !fn.Defined {
		panic("ir: verifyFunction called on an undefined function")
	}
	sawNonAlloca := false
	for _, inst := range fn.Entry.Instructions {
		if _, ok := inst.(*AllocaInst); ok {
			if sawNonAlloca {
				return errors.VerifierFailureErr(fn.DefPos, fn.Name, "alloca follows a non-alloca instruction in entry block")
			}
		} else {
			sawNonAlloca = true
		}
	}
	for _, blk := range fn.Blocks {
		if blk.Terminator == nil {
			return errors.VerifierFailureErr(fn.DefPos, fn.Name, fmt.Sprintf("block %%%s has no terminator", blk.Label))
		}
	}
	return nil
}

// lowerExpr is the polymorphic lowering operation of §4.1, dispatching on
// the concrete AST node kind.
func (b *Builder) lowerExpr(node ast.Expr, depth int) (*Value, error) {
	b.tr.Log(depth, "lower:"+node.NodeType().String(), node.String())
	switch n := node.(type) {
	case *ast.Number:
		return b.lowerNumber(n)
	case *ast.Variable:
		return b.lowerVariable(n)
	case *ast.Binary:
		return b.lowerBinary(n, depth)
	case *ast.Unary:
		return b.lowerUnary(n, depth)
	case *ast.Call:
		return b.lowerCall(n, depth)
	case *ast.If:
		return b.lowerIf(n, depth)
	case *ast.For:
		return b.lowerFor(n, depth)
	case *ast.While:
		return b.lowerWhile(n, depth)
	case *ast.Assignment:
		return b.lowerAssignment(n, depth)
	case *ast.Var:
		return b.lowerVar(n, depth)
	case *ast.Composite:
		return b.lowerComposite(n, depth)
	default:
		panic(fmt.Sprintf("ir: unhandled expression node type %T", node))
	}
}

func (b *Builder) lowerNumber(n *ast.Number) (*Value, error) {
	return &Value{IsConst: true, Const: n.Value, Type: Double}, nil
}

func (b *Builder) lowerVariable(n *ast.Variable) (*Value, error) {
	slot, ok := b.scope[n.Name]
	if !ok {
		return nil, errors.UnknownVariableErr(n.Pos, n.Name)
	}
	dest := b.newValue(Double)
	b.currentBlock.addInstruction(&LoadInst{Dest: dest, Addr: slot})
	return dest, nil
}

func (b *Builder) lowerBinary(n *ast.Binary, depth int) (*Value, error) {
	left, err := b.lowerExpr(n.Left, depth+1)
	if err != nil {
		return nil, err
	}
	right, err := b.lowerExpr(n.Right, depth+1)
	if err != nil {
		return nil, err
	}
	if n.Op.IsComparison() {
		cmp := b.newValue(I1)
		b.currentBlock.addInstruction(&BinaryInst{Dest: cmp, Op: fcmpMnemonic(n.Op), Left: left, Right: right})
		dest := b.newValue(Double)
		b.currentBlock.addInstruction(&UIToFPInst{Dest: dest, Operand: cmp})
		return dest, nil
	}
	dest := b.newValue(Double)
	b.currentBlock.addInstruction(&BinaryInst{Dest: dest, Op: arithMnemonic(n.Op), Left: left, Right: right})
	return dest, nil
}

func arithMnemonic(op ast.BinaryOp) string {
	switch op {
	case ast.OpAdd:
		return "fadd"
	case ast.OpSub:
		return "fsub"
	case ast.OpMul:
		return "fmul"
	case ast.OpDiv:
		return "fdiv"
	default:
		panic("ir: not an arithmetic operator")
	}
}

func fcmpMnemonic(op ast.BinaryOp) string {
	switch op {
	case ast.OpGt:
		return "fcmp ogt"
	case ast.OpGte:
		return "fcmp oge"
	case ast.OpLt:
		return "fcmp olt"
	case ast.OpLte:
		return "fcmp ole"
	case ast.OpEq:
		return "fcmp oeq"
	case ast.OpNeq:
		return "fcmp one"
	default:
		panic("ir: not a comparison operator")
	}
}

func (b *Builder) lowerUnary(n *ast.Unary, depth int) (*Value, error) {
	operand, err := b.lowerExpr(n.Operand, depth+1)
	if err != nil {
		return nil, err
	}
	dest := b.newValue(Double)
	b.currentBlock.addInstruction(&UnaryInst{Dest: dest, Op: "fneg", Operand: operand})
	return dest, nil
}

func (b *Builder) lowerCall(n *ast.Call, depth int) (*Value, error) {
	fn, ok := b.program.Functions[n.Callee]
	if !ok {
		return nil, errors.UnknownFunctionErr(n.Pos, n.Callee)
	}
	if len(fn.Params) != len(n.Args) {
		return nil, errors.ArityMismatchErr(n.Pos, len(fn.Params), len(n.Args))
	}
	args := make([]*Value, len(n.Args))
	for i, a := range n.Args {
		v, err := b.lowerExpr(a, depth+1)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	dest := b.newValue(Double)
	b.currentBlock.addInstruction(&CallInst{Dest: dest, Callee: n.Callee, Args: args})
	return dest, nil
}

// lowerIf implements §4.4, including the then_end/else_end re-read: the
// φ's incoming blocks are whatever b.currentBlock is immediately after
// lowering each arm, which already accounts for nested control flow
// inside the arm.
func (b *Builder) lowerIf(n *ast.If, depth int) (*Value, error) {
	condVal, err := b.lowerExpr(n.Cond, depth+1)
	if err != nil {
		return nil, err
	}
	boolVal := b.toBool(condVal)

	thenBlk := b.newBlock("then")
	elseBlk := b.newBlock("else")
	mergeBlk := b.newBlock("ifexit")

	b.setTerminator(&CondBrTerm{Cond: boolVal, TrueBlock: thenBlk, FalseBlock: elseBlk})

	b.appendBlock(thenBlk)
	thenVal, err := b.lowerExpr(n.Then, depth+1)
	if err != nil {
		return nil, err
	}
	b.setTerminator(&BrTerm{Target: mergeBlk})
	thenEnd := b.currentBlock

	b.appendBlock(elseBlk)
	elseVal, err := b.lowerExpr(n.Else, depth+1)
	if err != nil {
		return nil, err
	}
	b.setTerminator(&BrTerm{Target: mergeBlk})
	elseEnd := b.currentBlock

	b.appendBlock(mergeBlk)
	dest := b.newValue(Double)
	b.currentBlock.addInstruction(&PhiInst{Dest: dest, Incomings: []PhiIncoming{
		{Block: thenEnd, Value: thenVal},
		{Block: elseEnd, Value: elseVal},
	}})
	return dest, nil
}

// lowerFor implements §4.5, including the preserved leak of the
// induction variable's binding past the loop (§9 open question: never
// removed from b.scope).
func (b *Builder) lowerFor(n *ast.For, depth int) (*Value, error) {
	indName := n.Init.Name
	if _, exists := b.scope[indName]; exists {
		return nil, errors.RedefinedVariableErr(n.Init.Pos, indName)
	}
	indSlot := b.newValue(Double)
	b.allocaInEntry(indSlot)
	b.scope[indName] = indSlot

	exitSlot := b.newValue(Double)
	b.allocaInEntry(exitSlot)
	b.currentBlock.addInstruction(&StoreInst{Value: zeroConst(), Addr: exitSlot})

	if _, err := b.lowerAssignment(n.Init, depth+1); err != nil {
		return nil, err
	}

	headerBlk := b.newBlock("for.header")
	bodyBlk := b.newBlock("for.body")
	exitBlk := b.newBlock("for.exit")

	b.setTerminator(&BrTerm{Target: headerBlk})

	b.appendBlock(headerBlk)
	condVal, err := b.lowerExpr(n.Cond, depth+1)
	if err != nil {
		return nil, err
	}
	boolVal := b.toBool(condVal)
	b.setTerminator(&CondBrTerm{Cond: boolVal, TrueBlock: bodyBlk, FalseBlock: exitBlk})

	b.appendBlock(bodyBlk)
	bodyVal, err := b.lowerExpr(n.Body, depth+1)
	if err != nil {
		return nil, err
	}
	b.currentBlock.addInstruction(&StoreInst{Value: bodyVal, Addr: exitSlot})
	if _, err := b.lowerAssignment(n.Step, depth+1); err != nil {
		return nil, err
	}
	b.setTerminator(&BrTerm{Target: headerBlk})

	b.appendBlock(exitBlk)
	result := b.newValue(Double)
	b.currentBlock.addInstruction(&LoadInst{Dest: result, Addr: exitSlot})
	return result, nil
}

// lowerWhile implements §4.6: the same exitValuePtr shape as For, minus
// init/step.
func (b *Builder) lowerWhile(n *ast.While, depth int) (*Value, error) {
	exitSlot := b.newValue(Double)
	b.allocaInEntry(exitSlot)
	b.currentBlock.addInstruction(&StoreInst{Value: zeroConst(), Addr: exitSlot})

	headerBlk := b.newBlock("while.header")
	bodyBlk := b.newBlock("while.body")
	exitBlk := b.newBlock("while.exit")

	b.setTerminator(&BrTerm{Target: headerBlk})

	b.appendBlock(headerBlk)
	condVal, err := b.lowerExpr(n.Cond, depth+1)
	if err != nil {
		return nil, err
	}
	boolVal := b.toBool(condVal)
	b.setTerminator(&CondBrTerm{Cond: boolVal, TrueBlock: bodyBlk, FalseBlock: exitBlk})

	b.appendBlock(bodyBlk)
	bodyVal, err := b.lowerExpr(n.Body, depth+1)
	if err != nil {
		return nil, err
	}
	b.currentBlock.addInstruction(&StoreInst{Value: bodyVal, Addr: exitSlot})
	b.setTerminator(&BrTerm{Target: headerBlk})

	b.appendBlock(exitBlk)
	result := b.newValue(Double)
	b.currentBlock.addInstruction(&LoadInst{Dest: result, Addr: exitSlot})
	return result, nil
}

func (b *Builder) lowerAssignment(n *ast.Assignment, depth int) (*Value, error) {
	val, err := b.lowerExpr(n.Value, depth+1)
	if err != nil {
		return nil, err
	}
	slot, ok := b.scope[n.Name]
	if !ok {
		return nil, errors.UnknownVariableErr(n.Pos, n.Name)
	}
	b.currentBlock.addInstruction(&StoreInst{Value: val, Addr: slot})
	return val, nil
}

// lowerVar implements §4.7/§12: each declaration's initialiser is
// lowered and bound before the next declaration is lowered, so later
// initialisers may reference earlier names in the same Var.
func (b *Builder) lowerVar(n *ast.Var, depth int) (*Value, error) {
	for _, decl := range n.Decls {
		initVal, err := b.lowerExpr(decl.Init, depth+1)
		if err != nil {
			return nil, err
		}
		if _, exists := b.scope[decl.Name]; exists {
			return nil, errors.RedefinedVariableErr(decl.Pos, decl.Name)
		}
		slot := b.newValue(Double)
		b.allocaInEntry(slot)
		b.currentBlock.addInstruction(&StoreInst{Value: initVal, Addr: slot})
		b.scope[decl.Name] = slot
	}
	return b.lowerExpr(n.Body, depth+1)
}

func (b *Builder) lowerComposite(n *ast.Composite, depth int) (*Value, error) {
	curVal, err := b.lowerExpr(n.Current, depth+1)
	if err != nil {
		return nil, err
	}
	if n.Next == nil {
		return curVal, nil
	}
	return b.lowerExpr(n.Next, depth+1)
}

// toBool normalises a double to i1 via ordered-not-equal against 0.0
// (§3.1/§4.4's doubleToBoolean).
func (b *Builder) toBool(v *Value) *Value {
	dest := b.newValue(I1)
	b.currentBlock.addInstruction(&BinaryInst{Dest: dest, Op: "fcmp one", Left: v, Right: zeroConst()})
	return dest
}

func zeroConst() *Value { return &Value{IsConst: true, Const: 0.0, Type: Double} }

func (b *Builder) newValue(t Type) *Value {
	name := fmt.Sprintf("t%d", b.valueCounter)
	b.valueCounter++
	return &Value{Name: name, Type: t}
}

func (b *Builder) newBlock(prefix string) *BasicBlock {
	label := fmt.Sprintf("%s%d", prefix, b.blockCounter)
	b.blockCounter++
	return &BasicBlock{Label: label}
}

func (b *Builder) appendBlock(blk *BasicBlock) {
	b.currentFunc.Blocks = append(b.currentFunc.Blocks, blk)
	b.currentBlock = blk
}

func (b *Builder) setTerminator(t Terminator) {
	if b.currentBlock.Terminator != nil {
		panic(fmt.Sprintf("ir: block %%%s already has a terminator", b.currentBlock.Label))
	}
	b.currentBlock.Terminator = t
}

// allocaInEntry inserts a fresh alloca at the very front of the
// function's entry block, regardless of where b.currentBlock currently
// is (§4.5/§4.7: For/Var slots are allocated in the entry block even
// though they are requested from deep inside a loop or nested scope).
// Because allocas are always inserted at the front, every alloca in
// entry precedes every store in entry, including the stores that
// parameter binding and a Var/For/While lowered while still positioned
// in entry append there (§8 "Entry-block discipline").
func (b *Builder) allocaInEntry(v *Value) {
	entry := b.currentFunc.Entry
	entry.Instructions = append([]Instruction{&AllocaInst{Dest: v}}, entry.Instructions...)
}
