package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Shibodd/kalcc/internal/ast"
)

func TestExprNodesImplementExprInterface(t *testing.T) {
	var exprs []ast.Expr = []ast.Expr{
		&ast.Number{Value: 1},
		&ast.Variable{Name: "x"},
		&ast.Binary{Op: ast.OpAdd, Left: &ast.Number{Value: 1}, Right: &ast.Number{Value: 2}},
		&ast.Unary{Op: ast.OpNeg, Operand: &ast.Number{Value: 1}},
		&ast.Call{Callee: "f"},
		&ast.If{},
		&ast.For{},
		&ast.While{},
		&ast.Assignment{Name: "x"},
		&ast.Var{},
		&ast.Composite{},
	}
	assert.Len(t, exprs, 11)
}

func TestFunctionAndPrototypeAreItemsNotExprs(t *testing.T) {
	var items []ast.Item = []ast.Item{
		&ast.Prototype{Name: "f"},
		&ast.Function{},
		&ast.Sequence{},
	}
	assert.Len(t, items, 3)
	for _, it := range items {
		_, isExpr := it.(ast.Expr)
		assert.False(t, isExpr, "%T must not be an Expr", it)
	}
}

func TestBinaryOpString(t *testing.T) {
	assert.Equal(t, "+", ast.OpAdd.String())
	assert.Equal(t, "<", ast.OpLt.String())
	assert.True(t, ast.OpLt.IsComparison())
	assert.False(t, ast.OpAdd.IsComparison())
}

func TestBinaryStringRendersInfix(t *testing.T) {
	b := &ast.Binary{Op: ast.OpAdd, Left: &ast.Number{Value: 1}, Right: &ast.Number{Value: 2}}
	assert.Equal(t, "(1 + 2)", b.String())
}

func TestSequenceStringChainsItems(t *testing.T) {
	seq := &ast.Sequence{
		Current: &ast.Number{Value: 1},
		Next:    &ast.Sequence{Current: &ast.Number{Value: 2}},
	}
	assert.Contains(t, seq.String(), "1")
	assert.Contains(t, seq.String(), "2")
}
