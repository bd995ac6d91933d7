// Package parser implements the scanner and parser collaborators named
// by §6.2. Both are external-collaborator contracts per §1: simple and
// deliberately unambitious, since the subject of this module's design
// effort is the lowering pass in internal/ir, not these components.
package parser

import (
	"strconv"

	"github.com/Shibodd/kalcc/internal/ast"
	"github.com/Shibodd/kalcc/internal/errors"
	"github.com/Shibodd/kalcc/internal/trace"
)

// binaryPrecedence ranks every binary operator token, lowest first.
// EQUAL (assignment) is lowest and right-associative; everything else is
// left-associative, matching §6.2's "all operators associate left-to-right
// except assignment".
var binaryPrecedence = map[TokenType]int{
	EQUAL:         5,
	GREATER:       10,
	GREATER_EQUAL: 10,
	LESS:          10,
	LESS_EQUAL:    10,
	EQUAL_EQUAL:   10,
	BANG_EQUAL:    10,
	PLUS:          20,
	MINUS:         20,
	STAR:          40,
	SLASH:         40,
}

var comparisonOps = map[TokenType]ast.BinaryOp{
	GREATER:       ast.OpGt,
	GREATER_EQUAL: ast.OpGte,
	LESS:          ast.OpLt,
	LESS_EQUAL:    ast.OpLte,
	EQUAL_EQUAL:   ast.OpEq,
	BANG_EQUAL:    ast.OpNeq,
}

var arithOps = map[TokenType]ast.BinaryOp{
	PLUS:  ast.OpAdd,
	MINUS: ast.OpSub,
	STAR:  ast.OpMul,
	SLASH: ast.OpDiv,
}

// Parser consumes a token stream and builds the AST root (§6.2).
type Parser struct {
	filename string
	tokens   []Token
	current  int
	tr       *trace.Logger
	depth    int
}

func NewParser(filename string, tokens []Token, tr *trace.Logger) *Parser {
	return &Parser{filename: filename, tokens: tokens, tr: tr}
}

func (p *Parser) peek() Token   { return p.tokens[p.current] }
func (p *Parser) isAtEnd() bool { return p.peek().Type == EOF }

func (p *Parser) advance() Token {
	t := p.tokens[p.current]
	if !p.isAtEnd() {
		p.current++
	}
	return t
}

func (p *Parser) check(t TokenType) bool { return p.peek().Type == t }

func (p *Parser) expect(t TokenType, what string) (Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	tok := p.peek()
	return tok, errors.New(errors.ParseError, tok.Pos, "expected %s, got %q", what, tok.Lexeme)
}

func (p *Parser) trace(construct string) func() {
	p.tr.Log(p.depth, construct, "")
	p.depth++
	return func() { p.depth-- }
}

// ParseProgram parses the entire token stream into a Sequence root,
// chaining top-level items in source order (§6.2).
func (p *Parser) ParseProgram() (*ast.Sequence, error) {
	defer p.trace("Program")()

	if p.isAtEnd() {
		return nil, nil
	}
	head, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	return head, nil
}

func (p *Parser) parseSequence() (*ast.Sequence, error) {
	startPos := p.peek().Pos
	item, err := p.parseItem()
	if err != nil {
		return nil, err
	}
	seq := &ast.Sequence{Pos: startPos, EndPos: item.NodeEndPos(), Current: item}
	if p.isAtEnd() {
		return seq, nil
	}
	next, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	seq.Next = next
	seq.EndPos = next.EndPos
	return seq, nil
}

func (p *Parser) parseItem() (ast.Item, error) {
	switch p.peek().Type {
	case EXTERN:
		return p.parseExtern()
	case DEF:
		return p.parseDef()
	default:
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(SEMICOLON, "';'"); err != nil {
			return nil, err
		}
		return expr, nil
	}
}

func (p *Parser) parseExtern() (*ast.Prototype, error) {
	defer p.trace("extern")()
	start := p.advance().Pos // 'extern'
	proto, err := p.parsePrototype(start)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return proto, nil
}

func (p *Parser) parseDef() (*ast.Function, error) {
	defer p.trace("def")()
	start := p.advance().Pos // 'def'
	proto, err := p.parsePrototype(start)
	if err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON, "';'"); err != nil {
		return nil, err
	}
	return &ast.Function{Pos: start, EndPos: body.NodeEndPos(), Proto: proto, Body: body}, nil
}

func (p *Parser) parsePrototype(start ast.Position) (*ast.Prototype, error) {
	name, err := p.expect(IDENTIFIER, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LEFT_PAREN, "'('"); err != nil {
		return nil, err
	}
	var params []string
	for !p.check(RIGHT_PAREN) {
		param, err := p.expect(IDENTIFIER, "parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, param.Lexeme)
	}
	end, err := p.expect(RIGHT_PAREN, "')'")
	if err != nil {
		return nil, err
	}
	return &ast.Prototype{Pos: start, EndPos: end.EndPos, Name: name.Lexeme, Params: params}, nil
}

// parseExpr is the entry point for every expression-producing construct.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseBinary(0)
}

func (p *Parser) parseBinary(minPrec int) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().Type
		prec, ok := binaryPrecedence[op]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.advance()

		if op == EQUAL {
			v, ok := left.(*ast.Variable)
			if !ok {
				return nil, errors.New(errors.ParseError, left.NodePos(), "left-hand side of assignment must be an identifier")
			}
			right, err := p.parseBinary(prec) // right-associative
			if err != nil {
				return nil, err
			}
			left = &ast.Assignment{Pos: v.Pos, EndPos: right.NodeEndPos(), Name: v.Name, Value: right}
			continue
		}

		right, err := p.parseBinary(prec + 1) // left-associative
		if err != nil {
			return nil, err
		}
		var binOp ast.BinaryOp
		if b, ok := arithOps[op]; ok {
			binOp = b
		} else {
			binOp = comparisonOps[op]
		}
		left = &ast.Binary{Pos: left.NodePos(), EndPos: right.NodeEndPos(), Op: binOp, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.check(MINUS) {
		start := p.advance().Pos
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Pos: start, EndPos: operand.NodeEndPos(), Op: ast.OpNeg, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case NUMBER:
		return p.parseNumber()
	case IDENTIFIER:
		return p.parseIdentOrCall()
	case LEFT_PAREN:
		return p.parseParenOrComposite()
	case IF:
		return p.parseIf()
	case FOR:
		return p.parseFor()
	case WHILE:
		return p.parseWhile()
	case VAR:
		return p.parseVar()
	default:
		return nil, errors.New(errors.ParseError, tok.Pos, "unexpected token %q", tok.Lexeme)
	}
}

func (p *Parser) parseNumber() (ast.Expr, error) {
	tok := p.advance()
	val, err := strconv.ParseFloat(tok.Lexeme, 64)
	if err != nil {
		return nil, errors.New(errors.ParseError, tok.Pos, "invalid number literal %q", tok.Lexeme)
	}
	return &ast.Number{Pos: tok.Pos, EndPos: tok.EndPos, Value: val}, nil
}

func (p *Parser) parseIdentOrCall() (ast.Expr, error) {
	tok := p.advance()
	if !p.check(LEFT_PAREN) {
		return &ast.Variable{Pos: tok.Pos, EndPos: tok.EndPos, Name: tok.Lexeme}, nil
	}
	p.advance() // '('
	var args []ast.Expr
	for !p.check(RIGHT_PAREN) {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.check(COMMA) {
			p.advance()
		} else {
			break
		}
	}
	end, err := p.expect(RIGHT_PAREN, "')'")
	if err != nil {
		return nil, err
	}
	return &ast.Call{Pos: tok.Pos, EndPos: end.EndPos, Callee: tok.Lexeme, Args: args}, nil
}

func (p *Parser) parseParenOrComposite() (ast.Expr, error) {
	start := p.advance().Pos // '('
	var exprs []ast.Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
		if p.check(SEMICOLON) {
			p.advance()
			continue
		}
		break
	}
	end, err := p.expect(RIGHT_PAREN, "')'")
	if err != nil {
		return nil, err
	}
	return buildComposite(start, end.EndPos, exprs), nil
}

func buildComposite(start, end ast.Position, exprs []ast.Expr) ast.Expr {
	if len(exprs) == 1 {
		return exprs[0]
	}
	return &ast.Composite{Pos: start, EndPos: end, Current: exprs[0], Next: buildComposite(start, end, exprs[1:])}
}

func (p *Parser) parseIf() (ast.Expr, error) {
	defer p.trace("if")()
	start := p.advance().Pos // 'if'
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(THEN, "'then'"); err != nil {
		return nil, err
	}
	thenExpr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(ELSE, "'else'"); err != nil {
		return nil, err
	}
	elseExpr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.If{Pos: start, EndPos: elseExpr.NodeEndPos(), Cond: cond, Then: thenExpr, Else: elseExpr}, nil
}

func (p *Parser) parseFor() (ast.Expr, error) {
	defer p.trace("for")()
	start := p.advance().Pos // 'for'
	name, err := p.expect(IDENTIFIER, "induction variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(EQUAL, "'='"); err != nil {
		return nil, err
	}
	initVal, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(COMMA, "','"); err != nil {
		return nil, err
	}
	stepVal, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(IN, "'in'"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	init := &ast.Assignment{Pos: name.Pos, EndPos: initVal.NodeEndPos(), Name: name.Lexeme, Value: initVal}
	step := &ast.Assignment{Pos: name.Pos, EndPos: stepVal.NodeEndPos(), Name: name.Lexeme, Value: stepVal}
	return &ast.For{Pos: start, EndPos: body.NodeEndPos(), Init: init, Cond: cond, Step: step, Body: body}, nil
}

func (p *Parser) parseWhile() (ast.Expr, error) {
	defer p.trace("while")()
	start := p.advance().Pos // 'while'
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(IN, "'in'"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.While{Pos: start, EndPos: body.NodeEndPos(), Cond: cond, Body: body}, nil
}

func (p *Parser) parseVar() (ast.Expr, error) {
	defer p.trace("var")()
	start := p.advance().Pos // 'var'
	var decls []ast.VarDecl
	for {
		name, err := p.expect(IDENTIFIER, "variable name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(EQUAL, "'='"); err != nil {
			return nil, err
		}
		init, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		decls = append(decls, ast.VarDecl{Pos: name.Pos, EndPos: init.NodeEndPos(), Name: name.Lexeme, Init: init})
		if p.check(COMMA) {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(IN, "'in'"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Var{Pos: start, EndPos: body.NodeEndPos(), Decls: decls, Body: body}, nil
}
