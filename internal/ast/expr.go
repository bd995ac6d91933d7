package ast

// Expr is implemented by every node that lowers to exactly one IR value
// of double type (§3.2). Every Expr is also an Item, since a bare
// top-level expression may sit directly in a Sequence until §4.9
// promotion rewrites it into a Function.
type Expr interface {
	Item
	isExpr()
}
