// Package parser implements the recursive-descent parser spec.md treats
// as an external collaborator: it turns a token stream from
// internal/lexer into the internal/ast tree the semantic analyzer
// walks. Grounded on the precedence ladder of the original
// implementation's grammar (mult > add > comparison > and > or).
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/minic-cil/internal/ast"
	"github.com/cwbudde/minic-cil/internal/errors"
	"github.com/cwbudde/minic-cil/internal/lexer"
	"github.com/cwbudde/minic-cil/internal/token"
	"github.com/cwbudde/minic-cil/internal/types"
)

// Parser consumes a token stream and builds an *ast.StatementList. It
// aborts on the first syntax error, matching spec.md §1's "no error
// recovery" stance for the pipeline as a whole.
type Parser struct {
	lex    *lexer.Lexer
	file   string
	source string

	cur  token.Token
	peek token.Token
}

// New creates a Parser over source, tagging diagnostics with file.
func New(source, file string) *Parser {
	p := &Parser{lex: lexer.New(source), file: file, source: source}
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.peek
	p.peek = p.lex.NextToken()
}

func (p *Parser) errorf(pos token.Position, format string, args ...any) error {
	return errors.NewCompilerError("parse", pos, fmt.Sprintf(format, args...), p.source, p.file)
}

func (p *Parser) expect(tt token.Type) (token.Token, error) {
	if p.cur.Type != tt {
		return token.Token{}, p.errorf(p.cur.Pos, "expected %s, found %s", tt, p.cur.Type)
	}
	tok := p.cur
	p.advance()
	return tok, nil
}

// Parse builds the program's root StatementList (Program: true, per
// spec.md §3 — it does not open a lexical scope of its own).
func (p *Parser) Parse() (*ast.StatementList, error) {
	root := &ast.StatementList{Program: true}
	for p.cur.Type != token.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		root.Stmts = append(root.Stmts, stmt)
	}
	return root, nil
}

func (p *Parser) parseStatement() (ast.Node, error) {
	switch p.cur.Type {
	case token.KW_INT, token.KW_FLOAT, token.KW_CHAR, token.KW_STRING, token.KW_VOID:
		return p.parseDeclOrFuncDecl()
	case token.KW_IF:
		return p.parseIf()
	case token.KW_WHILE:
		return p.parseWhile()
	case token.KW_FOR:
		return p.parseFor()
	case token.KW_RETURN:
		return p.parseReturn()
	case token.LBRACE:
		return p.parseBlock()
	case token.IDENT:
		return p.parseIdentStatement()
	default:
		return nil, p.errorf(p.cur.Pos, "unexpected token %s", p.cur.Type)
	}
}

func (p *Parser) parseBlock() (*ast.StatementList, error) {
	lbrace, err := p.expect(token.LBRACE)
	if err != nil {
		return nil, err
	}
	block := &ast.StatementList{}
	block.Row = lbrace.Pos.Line
	for p.cur.Type != token.RBRACE {
		if p.cur.Type == token.EOF {
			return nil, p.errorf(p.cur.Pos, "expected %s, found %s", token.RBRACE, token.EOF)
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	p.advance()
	return block, nil
}

func (p *Parser) parseDeclType() (*ast.DeclType, error) {
	tok := p.cur
	if !token.IsTypeKeyword(tok.Type) {
		return nil, p.errorf(tok.Pos, "expected a type name, found %s", tok.Type)
	}
	p.advance()
	return &ast.DeclType{Meta: ast.Meta{Row: tok.Pos.Line}, Name: tok.Type.String()}, nil
}

func (p *Parser) parseIdent() (*ast.Ident, error) {
	tok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	return &ast.Ident{Meta: ast.Meta{Row: tok.Pos.Line}, Name: tok.Literal}, nil
}

func (p *Parser) parseDeclOrFuncDecl() (ast.Node, error) {
	row := p.cur.Pos.Line
	declType, err := p.parseDeclType()
	if err != nil {
		return nil, err
	}
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	switch p.cur.Type {
	case token.LPAREN:
		return p.parseFuncDeclRest(row, declType, name)
	case token.LBRACKET:
		return p.parseArrayDeclRest(row, declType, name)
	}

	decl := &ast.Decl{Meta: ast.Meta{Row: row}, DeclType: declType, Ident: name}
	if p.cur.Type == token.ASSIGN {
		p.advance()
		init, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		decl.Init = init
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseFuncDeclRest(row int, declType *ast.DeclType, name *ast.Ident) (ast.Node, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	params := &ast.DeclList{Meta: ast.Meta{Row: row}}
	for p.cur.Type != token.RPAREN {
		paramType, err := p.parseDeclType()
		if err != nil {
			return nil, err
		}
		paramName, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		params.Params = append(params.Params, &ast.Decl{
			Meta:     ast.Meta{Row: paramType.Row},
			DeclType: paramType,
			Ident:    paramName,
		})
		if p.cur.Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDecl{Meta: ast.Meta{Row: row}, FuncType: declType, Name: name, Params: params, Body: body}, nil
}

// parseArrayDeclRest accepts the non-goal array-declaration placeholder
// syntax `T name[len] (= { elem, ... })?;`; the semantic analyzer
// always rejects any use of the resulting node.
func (p *Parser) parseArrayDeclRest(row int, elemType *ast.DeclType, name *ast.Ident) (ast.Node, error) {
	if _, err := p.expect(token.LBRACKET); err != nil {
		return nil, err
	}
	length, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}

	decl := &ast.ArrayDecl{Meta: ast.Meta{Row: row}, ElemType: elemType, Name: name, Length: length}
	if p.cur.Type == token.ASSIGN {
		p.advance()
		if _, err := p.expect(token.LBRACE); err != nil {
			return nil, err
		}
		for p.cur.Type != token.RBRACE {
			elem, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			decl.Elems = append(decl.Elems, elem)
			if p.cur.Type == token.COMMA {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(token.RBRACE); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseIf() (ast.Node, error) {
	ifTok, err := p.expect(token.KW_IF)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	node := &ast.If{Meta: ast.Meta{Row: ifTok.Pos.Line}, Cond: cond, Then: then}
	if p.cur.Type == token.KW_ELSE {
		p.advance()
		elseBlock, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		node.Else = elseBlock
	}
	return node, nil
}

func (p *Parser) parseWhile() (ast.Node, error) {
	whileTok, err := p.expect(token.KW_WHILE)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Meta: ast.Meta{Row: whileTok.Pos.Line}, Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (ast.Node, error) {
	forTok, err := p.expect(token.KW_FOR)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	decl, err := p.parseForInit()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}

	var cond ast.Expression
	if p.cur.Type != token.SEMI {
		cond, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}

	var step ast.Node
	if p.cur.Type != token.RPAREN {
		step, err = p.parseForInit()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.For{Meta: ast.Meta{Row: forTok.Pos.Line}, Decl: decl, Cond: cond, Step: step, Body: body}, nil
}

// parseForInit parses either a declaration or an assignment, without
// consuming a trailing semicolon — the for-header punctuation is
// handled by the caller.
func (p *Parser) parseForInit() (ast.Node, error) {
	row := p.cur.Pos.Line
	if token.IsTypeKeyword(p.cur.Type) {
		declType, err := p.parseDeclType()
		if err != nil {
			return nil, err
		}
		name, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		decl := &ast.Decl{Meta: ast.Meta{Row: row}, DeclType: declType, Ident: name}
		if p.cur.Type == token.ASSIGN {
			p.advance()
			init, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			decl.Init = init
		}
		return decl, nil
	}

	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Meta: ast.Meta{Row: row}, Var: name, Val: val}, nil
}

func (p *Parser) parseReturn() (ast.Node, error) {
	retTok, err := p.expect(token.KW_RETURN)
	if err != nil {
		return nil, err
	}
	node := &ast.Return{Meta: ast.Meta{Row: retTok.Pos.Line}}
	if p.cur.Type != token.SEMI {
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		node.Value = val
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	return node, nil
}

// parseIdentStatement handles the two statement forms that start with
// a bare identifier: a call used as a statement, and an assignment.
func (p *Parser) parseIdentStatement() (ast.Node, error) {
	row := p.cur.Pos.Line
	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	if p.cur.Type == token.LPAREN {
		call, err := p.parseCallArgs(name)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		return call, nil
	}

	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMI); err != nil {
		return nil, err
	}
	return &ast.Assign{Meta: ast.Meta{Row: row}, Var: name, Val: val}, nil
}

func (p *Parser) parseCallArgs(name *ast.Ident) (*ast.FuncCall, error) {
	lparen, err := p.expect(token.LPAREN)
	if err != nil {
		return nil, err
	}
	args := &ast.ValueList{Meta: ast.Meta{Row: lparen.Pos.Line}}
	for p.cur.Type != token.RPAREN {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args.Args = append(args.Args, arg)
		if p.cur.Type == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return &ast.FuncCall{Meta: ast.Meta{Row: name.Row}, Name: name, Args: args}, nil
}

// Expression grammar, precedence lowest to highest:
// or > and > comparison > additive > multiplicative > primary.

func (p *Parser) parseExpr() (ast.Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseAnd, map[token.Type]types.BinOp{token.OR: types.Or})
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseComparison, map[token.Type]types.BinOp{token.AND: types.And})
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseAdditive, map[token.Type]types.BinOp{
		token.EQ: types.Eq, token.NE: types.Ne, token.GT: types.Gt,
		token.LT: types.Lt, token.GE: types.Ge, token.LE: types.Le,
	})
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parseMultiplicative, map[token.Type]types.BinOp{
		token.PLUS: types.Add, token.MINUS: types.Sub,
	})
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	return p.parseBinaryLevel(p.parsePrimary, map[token.Type]types.BinOp{
		token.STAR: types.Mul, token.SLASH: types.Div, token.PERCENT: types.Mod,
	})
}

// parseBinaryLevel implements one left-associative precedence level:
// it parses one operand via next, then loops while the current token
// names one of ops.
func (p *Parser) parseBinaryLevel(next func() (ast.Expression, error), ops map[token.Type]types.BinOp) (ast.Expression, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.cur.Type]
		if !ok {
			return left, nil
		}
		row := p.cur.Pos.Line
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Meta: ast.Meta{Row: row}, Op: op, Arg1: left, Arg2: right}
	}
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok := p.cur
	switch tok.Type {
	case token.INT_LIT:
		p.advance()
		v, err := strconv.ParseInt(tok.Literal, 0, 64)
		if err != nil {
			return nil, p.errorf(tok.Pos, "invalid integer literal %q", tok.Literal)
		}
		return &ast.Literal{Meta: ast.Meta{Row: tok.Pos.Line}, Text: tok.Literal, Value: v}, nil
	case token.FLOAT_LIT:
		p.advance()
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.errorf(tok.Pos, "invalid float literal %q", tok.Literal)
		}
		return &ast.Literal{Meta: ast.Meta{Row: tok.Pos.Line}, Text: tok.Literal, Value: v}, nil
	case token.STRING_LIT:
		p.advance()
		return &ast.Literal{Meta: ast.Meta{Row: tok.Pos.Line}, Text: tok.Literal, Value: unescape(strings.Trim(tok.Literal, `"`))}, nil
	case token.CHAR_LIT:
		p.advance()
		decoded := unescape(strings.Trim(tok.Literal, "'"))
		var r rune
		for _, c := range decoded {
			r = c
			break
		}
		return &ast.Literal{Meta: ast.Meta{Row: tok.Pos.Line}, Text: tok.Literal, Value: r}, nil
	case token.IDENT:
		p.advance()
		name := &ast.Ident{Meta: ast.Meta{Row: tok.Pos.Line}, Name: tok.Literal}
		switch p.cur.Type {
		case token.LPAREN:
			return p.parseCallArgs(name)
		case token.LBRACKET:
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET); err != nil {
				return nil, err
			}
			return &ast.ArrayIndex{Meta: ast.Meta{Row: tok.Pos.Line}, Array: name, Index: idx}, nil
		default:
			return name, nil
		}
	case token.LPAREN:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	default:
		return nil, p.errorf(tok.Pos, "unexpected token %s in expression", tok.Type)
	}
}

// unescape decodes the small backslash-escape set the lexer passes
// through verbatim inside string/char literals.
func unescape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '0':
				sb.WriteByte(0)
			case '\\', '"', '\'':
				sb.WriteByte(s[i])
			default:
				sb.WriteByte('\\')
				sb.WriteByte(s[i])
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
