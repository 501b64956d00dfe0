// Package ast defines the AST node hierarchy of spec.md §3: the tagged
// tree the parser produces and the semantic analyzer annotates in
// place with node_type/node_ident before the emitter walks it.
package ast

import (
	"strings"

	"github.com/cwbudde/minic-cil/internal/scope"
	"github.com/cwbudde/minic-cil/internal/types"
)

// Node is the interface every AST node satisfies: a source line for
// diagnostics, a one-line textual label, and its children for tree
// dumps (spec.md's pre-/post-check AST listings).
type Node interface {
	Line() int
	String() string
	Children() []Node
}

// Meta carries the three annotation fields every node has per
// spec.md §3: its source row, the TypeDesc the analyzer assigns, and
// the IdentDesc it binds to (for name-bearing nodes). It is embedded
// by every concrete node type instead of repeated on each of them.
type Meta struct {
	Row       int
	NodeType  *types.TypeDesc
	NodeIdent *scope.IdentDesc
}

// Line implements Node.
func (m *Meta) Line() int { return m.Row }

// Type and SetType give the semantic analyzer generic access to a
// node's node_type annotation without a type switch on the concrete
// node type; every concrete node embeds Meta, so these are promoted
// onto all of them automatically.
func (m *Meta) Type() *types.TypeDesc    { return m.NodeType }
func (m *Meta) SetType(t *types.TypeDesc) { m.NodeType = t }

// Ident and SetIdent are the same for the node_ident annotation.
func (m *Meta) Ident() *scope.IdentDesc     { return m.NodeIdent }
func (m *Meta) SetIdent(id *scope.IdentDesc) { m.NodeIdent = id }

// Typed is implemented by every node via the embedded Meta.
type Typed interface {
	Type() *types.TypeDesc
	SetType(*types.TypeDesc)
}

// Identified is implemented by every node via the embedded Meta.
type Identified interface {
	Ident() *scope.IdentDesc
	SetIdent(*scope.IdentDesc)
}

// Expression is a Node that produces a value; BinOp/Assign operand
// slots are typed as Expression so the analyzer can reassign them to a
// synthetic TypeConvert without the parser needing to know about it.
type Expression interface {
	Node
	exprNode()
}

// Literal is a literal value; the lexical form is kept alongside the
// decoded Value and is what String (and so the AST dump) prints. The
// emitter formats the decoded Value, not the lexical form.
type Literal struct {
	Meta
	Text  string // lexical form, including quotes for STR/CHAR
	Value any    // int64, float64, string (STR, unquoted), or rune (CHAR)
}

func (*Literal) exprNode()        {}
func (l *Literal) String() string { return l.Text }
func (l *Literal) Children() []Node { return nil }

// Ident is a bare identifier reference.
type Ident struct {
	Meta
	Name string
}

func (*Ident) exprNode()          {}
func (i *Ident) String() string   { return i.Name }
func (i *Ident) Children() []Node { return nil }

// DeclType is a type-name node, e.g. the `int` in `int x;`.
type DeclType struct {
	Meta
	Name string
}

func (d *DeclType) String() string   { return d.Name }
func (d *DeclType) Children() []Node { return nil }

// BinOp is a binary operator application.
type BinOp struct {
	Meta
	Op   types.BinOp
	Arg1 Expression
	Arg2 Expression
}

func (*BinOp) exprNode()        {}
func (b *BinOp) String() string { return string(b.Op) }
func (b *BinOp) Children() []Node { return []Node{b.Arg1, b.Arg2} }

// TypeConvert is a synthetic implicit-conversion node the analyzer
// inserts; it never appears in parser output.
type TypeConvert struct {
	Meta
	Expr Expression
	To   *types.TypeDesc
}

func (*TypeConvert) exprNode()        {}
func (c *TypeConvert) String() string { return "convert to " + c.To.String() }
func (c *TypeConvert) Children() []Node { return []Node{c.Expr} }

// Assign is a `var = val` assignment statement.
type Assign struct {
	Meta
	Var Expression
	Val Expression
}

func (a *Assign) String() string   { return "=" }
func (a *Assign) Children() []Node { return []Node{a.Var, a.Val} }

// StatementList is a `{ ... }` block, or (when Program is true) the
// whole-program root, which does not open a new lexical scope.
type StatementList struct {
	Meta
	Stmts   []Node
	Program bool
}

func (s *StatementList) String() string   { return "..." }
func (s *StatementList) Children() []Node { return s.Stmts }

// If is an `if (cond) then [else else_]` statement.
type If struct {
	Meta
	Cond Expression
	Then Node
	Else Node // nil if absent
}

func (f *If) String() string { return "if" }
func (f *If) Children() []Node {
	if f.Else == nil {
		return []Node{f.Cond, f.Then}
	}
	return []Node{f.Cond, f.Then, f.Else}
}

// While is a `while (cond) body` statement.
type While struct {
	Meta
	Cond Expression
	Body Node
}

func (w *While) String() string   { return "while" }
func (w *While) Children() []Node { return []Node{w.Cond, w.Body} }

// For is a `for (decl; cond; step) body` statement. Cond is nil when
// the source omits it; the semantic check materializes a Literal("1")
// in its place the first time it walks this node (spec.md §9).
type For struct {
	Meta
	Decl Node
	Cond Expression
	Step Node
	Body Node
}

func (f *For) String() string   { return "for" }
func (f *For) Children() []Node { return []Node{f.Decl, f.Cond, f.Step, f.Body} }

// Decl is a variable declaration, optionally with an initializer.
type Decl struct {
	Meta
	DeclType *DeclType
	Ident    *Ident
	Init     Expression // nil if absent
}

func (d *Decl) String() string { return "variable: " + d.DeclType.Name }
func (d *Decl) Children() []Node {
	if d.Init == nil {
		return []Node{d.Ident}
	}
	return []Node{d.Ident, d.Init}
}

// DeclList is a function's formal parameter list.
type DeclList struct {
	Meta
	Params []*Decl
}

func (d *DeclList) String() string { return "params" }
func (d *DeclList) Children() []Node {
	nodes := make([]Node, len(d.Params))
	for i, p := range d.Params {
		nodes[i] = p
	}
	return nodes
}

// FuncDecl is a top-level function declaration.
type FuncDecl struct {
	Meta
	FuncType *DeclType
	Name     *Ident
	Params   *DeclList
	Body     Node
}

func (f *FuncDecl) String() string   { return "fn -> " + f.FuncType.Name }
func (f *FuncDecl) Children() []Node { return []Node{f.FuncType, f.Name, f.Params, f.Body} }

// ValueList is a call's actual-argument list.
type ValueList struct {
	Meta
	Args []Expression
}

func (v *ValueList) String() string   { return "params" }
func (v *ValueList) Children() []Node {
	nodes := make([]Node, len(v.Args))
	for i, a := range v.Args {
		nodes[i] = a
	}
	return nodes
}

// FuncCall is a call expression.
type FuncCall struct {
	Meta
	Name *Ident
	Args *ValueList
}

func (*FuncCall) exprNode()        {}
func (c *FuncCall) String() string { return c.Name.Name }
func (c *FuncCall) Children() []Node { return []Node{c.Name, c.Args} }

// Return is a `return value;` statement.
type Return struct {
	Meta
	Value Expression
}

func (r *Return) String() string   { return "return" }
func (r *Return) Children() []Node { return []Node{r.Value} }

// ArrayDecl is the parsed-only array-declaration placeholder spec.md's
// Non-goals call out ("arrays beyond a parsed-only placeholder"): the
// parser accepts `T name[N] = {...};` but the semantic analyzer always
// rejects any use of it (see internal/semantic).
type ArrayDecl struct {
	Meta
	ElemType *DeclType
	Name     *Ident
	Length   Expression
	Elems    []Expression
}

func (a *ArrayDecl) String() string { return "array: " + a.Name.Name }
func (a *ArrayDecl) Children() []Node {
	nodes := make([]Node, len(a.Elems))
	for i, e := range a.Elems {
		nodes[i] = e
	}
	return nodes
}

// ArrayIndex is the parsed-only `name[index]` placeholder paired with ArrayDecl.
type ArrayIndex struct {
	Meta
	Array *Ident
	Index Expression
}

func (*ArrayIndex) exprNode()          {}
func (a *ArrayIndex) String() string   { return "arr \"" + a.Array.Name + "\" item" }
func (a *ArrayIndex) Children() []Node { return []Node{a.Index} }

// Dump renders n and its subtree using the ├/└ box-drawing layout
// spec.md's external-interface AST dump is expected to produce,
// one line per node, each annotated with its node_type / node_ident
// once semantic check has run.
func Dump(n Node) string {
	var sb strings.Builder
	dump(&sb, n, "")
	return strings.TrimRight(sb.String(), "\n")
}

func dump(sb *strings.Builder, n Node, prefix string) {
	if n == nil {
		sb.WriteString("<nil>\n")
		return
	}
	sb.WriteString(describe(n))
	sb.WriteString("\n")

	children := n.Children()
	for i, child := range children {
		last := i == len(children)-1
		branch, nextPrefix := "├── ", prefix+"│   "
		if last {
			branch, nextPrefix = "└── ", prefix+"    "
		}
		sb.WriteString(prefix + branch)
		dump(sb, child, nextPrefix)
	}
}

// describe renders one node's own line: its String() plus, once
// annotated, its node_type and node_ident (spec.md's to_str_full).
func describe(n Node) string {
	s := n.String()
	var extra []string
	if typed, ok := n.(Typed); ok {
		if t := typed.Type(); t != nil {
			extra = append(extra, t.String())
		}
	}
	if identd, ok := n.(Identified); ok {
		if id := identd.Ident(); id != nil {
			extra = append(extra, id.String())
		}
	}
	if len(extra) == 0 {
		return s
	}
	return s + " => " + strings.Join(extra, ", ")
}
