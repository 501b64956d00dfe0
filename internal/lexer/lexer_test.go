package lexer

import (
	"testing"

	"github.com/cwbudde/minic-cil/internal/token"
)

func TestNextToken_Operators(t *testing.T) {
	input := `+-*/% > < >= <= == != && || = ! ( ) { } [ ] , ;`

	want := []token.Type{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.GT, token.LT, token.GE, token.LE, token.EQ, token.NE,
		token.AND, token.OR, token.ASSIGN, token.NOT,
		token.LPAREN, token.RPAREN, token.LBRACE, token.RBRACE,
		token.LBRACKET, token.RBRACKET, token.COMMA, token.SEMI,
		token.EOF,
	}

	l := New(input)
	for i, tt := range want {
		tok := l.NextToken()
		if tok.Type != tt {
			t.Fatalf("token %d: got %s, want %s (literal %q)", i, tok.Type, tt, tok.Literal)
		}
	}
}

func TestNextToken_KeywordsAndIdents(t *testing.T) {
	input := `int float char string void if else while for return foo _bar2`

	want := []struct {
		typ     token.Type
		literal string
	}{
		{token.KW_INT, "int"},
		{token.KW_FLOAT, "float"},
		{token.KW_CHAR, "char"},
		{token.KW_STRING, "string"},
		{token.KW_VOID, "void"},
		{token.KW_IF, "if"},
		{token.KW_ELSE, "else"},
		{token.KW_WHILE, "while"},
		{token.KW_FOR, "for"},
		{token.KW_RETURN, "return"},
		{token.IDENT, "foo"},
		{token.IDENT, "_bar2"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range want {
		tok := l.NextToken()
		if tok.Type != tt.typ || tok.Literal != tt.literal {
			t.Fatalf("token %d: got %s(%q), want %s(%q)", i, tok.Type, tok.Literal, tt.typ, tt.literal)
		}
	}
}

func TestNextToken_Literals(t *testing.T) {
	input := `5 3.14 0x1F 1e10 1.5e-3 "hello" 'a'`

	want := []struct {
		typ     token.Type
		literal string
	}{
		{token.INT_LIT, "5"},
		{token.FLOAT_LIT, "3.14"},
		{token.INT_LIT, "0x1F"},
		{token.FLOAT_LIT, "1e10"},
		{token.FLOAT_LIT, "1.5e-3"},
		{token.STRING_LIT, `"hello"`},
		{token.CHAR_LIT, "'a'"},
		{token.EOF, ""},
	}

	l := New(input)
	for i, tt := range want {
		tok := l.NextToken()
		if tok.Type != tt.typ || tok.Literal != tt.literal {
			t.Fatalf("token %d: got %s(%q), want %s(%q)", i, tok.Type, tok.Literal, tt.typ, tt.literal)
		}
	}
}

func TestNextToken_Comments(t *testing.T) {
	input := `
		// line comment
		int /* block
		comment */ a;
	`
	want := []token.Type{token.KW_INT, token.IDENT, token.SEMI, token.EOF}

	l := New(input)
	for i, tt := range want {
		tok := l.NextToken()
		if tok.Type != tt {
			t.Fatalf("token %d: got %s, want %s", i, tok.Type, tt)
		}
	}
}

func TestNextToken_Positions(t *testing.T) {
	input := "int a;\nint b;"

	l := New(input)
	_ = l.NextToken() // int
	tok := l.NextToken() // a
	if tok.Pos.Line != 1 {
		t.Errorf("expected line 1, got %d", tok.Pos.Line)
	}
	_ = l.NextToken() // ;
	tok = l.NextToken() // int (line 2)
	if tok.Pos.Line != 2 {
		t.Errorf("expected line 2, got %d", tok.Pos.Line)
	}
}

func TestNextToken_IllegalChar(t *testing.T) {
	l := New(`@`)
	tok := l.NextToken()
	if tok.Type != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %s", tok.Type)
	}
}
