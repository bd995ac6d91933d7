package ir_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shibodd/kalcc/internal/errors"
	"github.com/Shibodd/kalcc/internal/ir"
	"github.com/Shibodd/kalcc/internal/parser"
	"github.com/Shibodd/kalcc/internal/trace"
)

func compile(t *testing.T, src string) (*ir.Program, error) {
	t.Helper()
	tokens, scanErrs := parser.NewScanner("test.kal", src, trace.New(io.Discard, false)).ScanTokens()
	require.Empty(t, scanErrs)
	root, err := parser.NewParser("test.kal", tokens, trace.New(io.Discard, false)).ParseProgram()
	require.NoError(t, err)
	return ir.NewBuilder(trace.New(io.Discard, false)).Build(root)
}

// Scenario 1 (§8): def f(x) x + 1;
func TestLowerSimpleFunction(t *testing.T) {
	program, err := compile(t, "def f(x) x + 1;")
	require.NoError(t, err)

	fn := program.Functions["f"]
	require.NotNil(t, fn)
	assert.True(t, fn.Defined)
	assert.Equal(t, []string{"x"}, fn.Params)

	out := ir.Print(program)
	assert.Contains(t, out, "define double @f(double %x)")
	assert.Contains(t, out, "fadd")
	assert.Contains(t, out, "ret double")
}

// Scenario 2 (§8): 1 + 2 * 3; promotes to __anon_expr0.
func TestTopLevelExpressionPromotion(t *testing.T) {
	program, err := compile(t, "1 + 2 * 3;")
	require.NoError(t, err)

	fn := program.Functions["__anon_expr0"]
	require.NotNil(t, fn)
	assert.Empty(t, fn.Params)

	out := ir.Print(program)
	assert.Contains(t, out, "define double @__anon_expr0()")
	assert.Contains(t, out, "fmul")
	assert.Contains(t, out, "fadd")
}

// The anon counter is monotonic within a run and reset across runs (§8
// Determinism).
func TestAnonCounterMonotonicWithinRun(t *testing.T) {
	program, err := compile(t, "1; 2;")
	require.NoError(t, err)
	assert.NotNil(t, program.Functions["__anon_expr0"])
	assert.NotNil(t, program.Functions["__anon_expr1"])

	// a fresh Builder run starts back at 0
	program2, err := compile(t, "1;")
	require.NoError(t, err)
	assert.NotNil(t, program2.Functions["__anon_expr0"])
}

// Scenario 3 (§8): if/then/else merges via a double phi, fed by the
// re-read then_end/else_end blocks (§4.4).
func TestLowerIfProducesPhi(t *testing.T) {
	program, err := compile(t, "def cmp(a b) if a < b then 1 else 0;")
	require.NoError(t, err)

	fn := program.Functions["cmp"]
	require.NotNil(t, fn)

	var sawPhi, sawFcmp, sawUitofp, sawCondBr bool
	for _, blk := range fn.Blocks {
		for _, inst := range blk.Instructions {
			switch v := inst.(type) {
			case *ir.PhiInst:
				sawPhi = true
				require.Len(t, v.Incomings, 2)
			case *ir.BinaryInst:
				if v.Op == "fcmp olt" {
					sawFcmp = true
				}
			case *ir.UIToFPInst:
				sawUitofp = true
			}
		}
		if _, ok := blk.Terminator.(*ir.CondBrTerm); ok {
			sawCondBr = true
		}
	}
	assert.True(t, sawPhi)
	assert.True(t, sawFcmp)
	assert.True(t, sawUitofp)
	assert.True(t, sawCondBr)
}

// Nested If inside a then-arm: the phi's incoming block must be the
// block that actually branches to ifexit, not the block that began the
// arm (§4.4 rationale).
func TestLowerNestedIfReadsCurrentBlock(t *testing.T) {
	program, err := compile(t, "def f(a b c) if a then (if b then 1 else 2) else c;")
	require.NoError(t, err)
	fn := program.Functions["f"]
	require.NotNil(t, fn)

	var outerPhi *ir.PhiInst
	var outerPhiBlock *ir.BasicBlock
	for _, blk := range fn.Blocks {
		for _, inst := range blk.Instructions {
			if p, ok := inst.(*ir.PhiInst); ok {
				outerPhi = p
				outerPhiBlock = blk
			}
		}
	}
	require.NotNil(t, outerPhi)
	// both incoming blocks must actually end in a branch to outerPhi's block
	for _, inc := range outerPhi.Incomings {
		br, isBr := inc.Block.Terminator.(*ir.BrTerm)
		assert.True(t, isBr, "incoming block %s must terminate with a branch", inc.Block.Label)
		if isBr {
			assert.Same(t, outerPhiBlock, br.Target, "incoming block %s must branch to the phi's block", inc.Block.Label)
		}
	}
}

// Scenario 4 (§8): entry-block allocas for s, i, exitValuePtr; final
// value is the loaded accumulator.
func TestLowerForLoopAllocatesInEntry(t *testing.T) {
	src := "def sumto(n) var s = 0 in (for i = 1, i <= n, i = i + 1 in s = s + i);"
	program, err := compile(t, src)
	require.NoError(t, err)

	fn := program.Functions["sumto"]
	require.NotNil(t, fn)

	allocaCount := 0
	sawNonAlloca := false
	for _, inst := range fn.Entry.Instructions {
		if _, ok := inst.(*ir.AllocaInst); ok {
			allocaCount++
			require.False(t, sawNonAlloca, "alloca must precede any store in the entry block")
		} else {
			sawNonAlloca = true
		}
	}
	// n's slot, s's slot, i's slot, exitValuePtr's slot
	assert.Equal(t, 4, allocaCount)

	var sawLoopHeader bool
	for _, blk := range fn.Blocks {
		if _, ok := blk.Terminator.(*ir.CondBrTerm); ok {
			sawLoopHeader = true
		}
	}
	assert.True(t, sawLoopHeader)
}

// The induction variable leaks into the enclosing scope and is therefore
// visible after the loop within the same function (§4.5 open question,
// preserved).
func TestForInductionVariableLeaksAfterLoop(t *testing.T) {
	src := "def f() var unused = 0 in (for i = 1, i <= 3, i = i + 1 in i; i);"
	_, err := compile(t, src)
	require.NoError(t, err, "referencing i after the loop must not be an UnknownVariable error")
}

// While has the same exitValuePtr shape as For, minus init/step (§4.6).
func TestLowerWhileLoop(t *testing.T) {
	src := "def f(n) var i = 0 in (while i < n in i = i + 1);"
	program, err := compile(t, src)
	require.NoError(t, err)
	fn := program.Functions["f"]
	require.NotNil(t, fn)

	var sawCondBr, sawBackBr int
	for _, blk := range fn.Blocks {
		switch blk.Terminator.(type) {
		case *ir.CondBrTerm:
			sawCondBr++
		case *ir.BrTerm:
			sawBackBr++
		}
	}
	assert.Equal(t, 1, sawCondBr)
	assert.GreaterOrEqual(t, sawBackBr, 2) // preheader->header, body->header
}

// Scenario 5 (§8): UnknownVariable is reported at the offending node's
// location.
func TestUnknownVariableError(t *testing.T) {
	_, err := compile(t, "def bad() x;")
	require.Error(t, err)
	ce, ok := err.(*errors.CompilerError)
	require.True(t, ok)
	assert.Equal(t, errors.UnknownVariable, ce.Kind)
	assert.Contains(t, ce.Error(), "Error at Ln")
}

// Scenario 6 (§8): a second definition of the same function name is
// RedefinedFunction.
func TestRedefinedFunctionError(t *testing.T) {
	_, err := compile(t, "def f(x) x; def f(x) x + 1;")
	require.Error(t, err)
	ce, ok := err.(*errors.CompilerError)
	require.True(t, ok)
	assert.Equal(t, errors.RedefinedFunction, ce.Kind)
}

func TestRedefinedVariableError(t *testing.T) {
	_, err := compile(t, "def f() var x = 1, x = 2 in x;")
	require.Error(t, err)
	ce, ok := err.(*errors.CompilerError)
	require.True(t, ok)
	assert.Equal(t, errors.RedefinedVariable, ce.Kind)
}

func TestUnknownFunctionError(t *testing.T) {
	_, err := compile(t, "def f() g(1);")
	require.Error(t, err)
	ce, ok := err.(*errors.CompilerError)
	require.True(t, ok)
	assert.Equal(t, errors.UnknownFunction, ce.Kind)
}

func TestArityMismatchError(t *testing.T) {
	_, err := compile(t, "def g(a b) a + b; def f() g(1);")
	require.Error(t, err)
	ce, ok := err.(*errors.CompilerError)
	require.True(t, ok)
	assert.Equal(t, errors.ArityMismatch, ce.Kind)
}

// extern declares without defining; a later matching def supplies the
// body exactly once (§12).
func TestExternThenDefine(t *testing.T) {
	program, err := compile(t, "extern sin(x); def f(x) sin(x);")
	require.NoError(t, err)
	fn := program.Functions["sin"]
	require.NotNil(t, fn)
	assert.False(t, fn.Defined)

	_, err = compile(t, "extern sin(x); def sin(x) x; def f(x) sin(x);")
	require.NoError(t, err)
}

// §8 "Numeric normalisation": every comparison op ends in a value
// produced by uitofp, i.e. never a bare i1.
func TestComparisonsNormaliseToDouble(t *testing.T) {
	for _, op := range []string{">", ">=", "<", "<=", "==", "!="} {
		program, err := compile(t, "def f(a b) a "+op+" b;")
		require.NoError(t, err)
		fn := program.Functions["f"]
		foundUitofp := false
		for _, blk := range fn.Blocks {
			for _, inst := range blk.Instructions {
				if _, ok := inst.(*ir.UIToFPInst); ok {
					foundUitofp = true
				}
			}
		}
		assert.True(t, foundUitofp, "operator %s must normalise through uitofp", op)
	}
}

// §8 "Scope isolation across functions": a binding from one function
// must not leak into a later function.
func TestScopeIsolationAcrossFunctions(t *testing.T) {
	// f's "s" binding must not be visible while lowering g, even though
	// g never declares one of its own with that name.
	_, err := compile(t, "def f() var s = 1 in s; def g() s;")
	require.Error(t, err)
	ce, ok := err.(*errors.CompilerError)
	require.True(t, ok)
	assert.Equal(t, errors.UnknownVariable, ce.Kind)
}

func TestEmptyProgramCompilesToNothing(t *testing.T) {
	program, err := compile(t, "")
	require.NoError(t, err)
	assert.Empty(t, program.Functions)
}
