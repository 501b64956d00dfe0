// Package emitter implements the second recursive tree walk of
// spec.md §4.4: it lowers a fully semantically-checked AST into a
// textual MSIL-style stack-machine listing, resolving forward label
// references to numeric instruction indices at serialization time.
package emitter

import (
	"fmt"
	"strings"

	"github.com/cwbudde/minic-cil/internal/ast"
	"github.com/cwbudde/minic-cil/internal/scope"
	"github.com/cwbudde/minic-cil/internal/types"
)

// label is an opaque marker attached to a CodeLine; its identity, not
// its content, is what a branch instruction refers to.
type label struct{}

// CodeLine is one line of the emitted listing before label resolution:
// its raw text (already formatted, with one "%s" placeholder if ref is
// set), any labels it carries, and the label (if any) a branch
// instruction on this line refers to.
type CodeLine struct {
	Text   string
	ref    *label
	labels []*label
}

// Generator accumulates CodeLines for one compilation unit and
// resolves them into the final listing on String.
type Generator struct {
	lines   []*CodeLine
	pending []*label

	// localDecls collects, per function body walked, the Decl nodes
	// whose identifier ended up LOCAL, for the .locals init header.
	localDecls []*ast.Decl
}

// New creates an empty Generator.
func New() *Generator { return &Generator{} }

func (g *Generator) newLabel() *label { return &label{} }

// place marks l as the label of whichever CodeLine is emitted next.
func (g *Generator) place(l *label) { g.pending = append(g.pending, l) }

func (g *Generator) emit(format string, args ...any) {
	g.lines = append(g.lines, &CodeLine{Text: fmt.Sprintf(format, args...), labels: g.pending})
	g.pending = nil
}

// branch emits a jump instruction whose target label is resolved at
// serialization time.
func (g *Generator) branch(mnemonic string, target *label) {
	g.lines = append(g.lines, &CodeLine{Text: mnemonic + " %s", ref: target, labels: g.pending})
	g.pending = nil
}

// String resolves every label to its IL_<n> index (assigned by order
// of appearance among labelled lines) and renders the final listing,
// applying the brace-based indentation rule of spec.md §4.4.
func (g *Generator) String() string {
	indices := make(map[*label]int)
	next := 0
	for _, line := range g.lines {
		for _, l := range line.labels {
			indices[l] = next
			next++
		}
	}

	var sb strings.Builder
	depth := 0
	for _, line := range g.lines {
		text := line.Text
		if line.ref != nil {
			text = fmt.Sprintf(text, fmt.Sprintf("IL_%d", indices[line.ref]))
		}
		if len(line.labels) > 0 {
			tags := make([]string, len(line.labels))
			for i, l := range line.labels {
				tags[i] = fmt.Sprintf("IL_%d", indices[l])
			}
			text = strings.Join(tags, ", ") + ": " + text
		}
		if strings.HasPrefix(strings.TrimSpace(text), "}") && depth > 0 {
			depth--
		}
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(text)
		sb.WriteString("\n")
		if strings.HasSuffix(text, "{") {
			depth++
		}
	}
	return sb.String()
}

// typeTag renders the MSIL primitive type name for a TypeDesc, as used
// in field/local/parameter/return-type positions.
func typeTag(t *types.TypeDesc) string {
	switch t.Base() {
	case types.VOID:
		return "void"
	case types.INT:
		return "int32"
	case types.FLOAT:
		return "float64"
	case types.CHAR:
		return "int16"
	case types.STR:
		return "string"
	default:
		return "object"
	}
}

// EmitProgram lowers a fully checked program root into the final
// listing text, per spec.md §4.4's "Program emission" steps.
func EmitProgram(root *ast.StatementList) string {
	g := New()
	g.emit(".assembly program { }")
	g.emit(".class public Program {")

	// Two separate passes over root.Stmts, matching
	// original_source/code_gen.py:390's msil_gen_program: every global
	// .field first, then every FuncDecl .method, regardless of their
	// relative order in the source.
	var toplevel []ast.Node
	for _, stmt := range root.Stmts {
		if decl, ok := stmt.(*ast.Decl); ok && decl.Ident.NodeIdent != nil && decl.Ident.NodeIdent.Scope == scope.Global {
			g.emit(".field public static %s _gv%d", typeTag(decl.Ident.NodeIdent.Type), decl.Ident.NodeIdent.Index)
		}
		if _, ok := stmt.(*ast.FuncDecl); !ok {
			toplevel = append(toplevel, stmt)
		}
	}
	for _, stmt := range root.Stmts {
		if fn, ok := stmt.(*ast.FuncDecl); ok {
			g.emitFuncDecl(fn)
		}
	}

	g.emit(".method public static void Main() {")
	g.emit("  .entrypoint")
	for _, stmt := range toplevel {
		g.emitStatement(stmt)
	}
	if len(toplevel) == 0 || !isReturn(toplevel[len(toplevel)-1]) {
		g.emit("ret")
	}
	g.emit("}")

	g.emit("}")
	return g.String()
}

func isReturn(n ast.Node) bool {
	_, ok := n.(*ast.Return)
	return ok
}

// emitFuncDecl emits one top-level function as a static method,
// including its collected .locals init header.
func (g *Generator) emitFuncDecl(fn *ast.FuncDecl) {
	params := make([]string, len(fn.Params.Params))
	for i, p := range fn.Params.Params {
		params[i] = typeTag(p.DeclType.NodeType)
	}
	g.emit(".method public static %s %s(%s) cil managed {", typeTag(fn.FuncType.NodeType), fn.Name.Name, strings.Join(params, ", "))

	saved := g.localDecls
	g.localDecls = nil
	collectLocals(fn.Body, &g.localDecls)
	if len(g.localDecls) > 0 {
		locals := make([]string, len(g.localDecls))
		for i, d := range g.localDecls {
			locals[i] = fmt.Sprintf("%s _v%d", typeTag(d.Ident.NodeIdent.Type), d.Ident.NodeIdent.Index)
		}
		g.emit(".locals init (%s)", strings.Join(locals, ", "))
	}

	body := fn.Body.(*ast.StatementList)
	g.emitStatement(body)
	if len(body.Stmts) == 0 || !isReturn(body.Stmts[len(body.Stmts)-1]) {
		g.emit("ret")
	}
	g.localDecls = saved

	g.emit("}")
}

// collectLocals walks a function body collecting every Decl whose
// identifier was finalized as LOCAL, in declaration order.
func collectLocals(n ast.Node, out *[]*ast.Decl) {
	switch node := n.(type) {
	case *ast.Decl:
		if node.Ident.NodeIdent != nil && node.Ident.NodeIdent.Scope == scope.Local {
			*out = append(*out, node)
		}
	case *ast.StatementList:
		for _, stmt := range node.Stmts {
			collectLocals(stmt, out)
		}
	case *ast.If:
		collectLocals(node.Then, out)
		if node.Else != nil {
			collectLocals(node.Else, out)
		}
	case *ast.While:
		collectLocals(node.Body, out)
	case *ast.For:
		collectLocals(node.Decl, out)
		collectLocals(node.Body, out)
	}
}

// emitStatement dispatches a statement-position node to its emission
// rule (spec.md §4.4's "Emission per node").
func (g *Generator) emitStatement(n ast.Node) {
	switch node := n.(type) {
	case *ast.StatementList:
		for _, stmt := range node.Stmts {
			g.emitStatement(stmt)
		}
	case *ast.Decl:
		g.emitDecl(node)
	case *ast.Assign:
		g.emitExpr(node.Val)
		g.emitStore(node.Var)
	case *ast.If:
		g.emitIf(node)
	case *ast.While:
		g.emitWhile(node)
	case *ast.For:
		g.emitFor(node)
	case *ast.Return:
		if node.Value != nil {
			g.emitExpr(node.Value)
		}
		g.emit("ret")
	case *ast.FuncCall:
		g.emitExpr(node)
	default:
		panic(fmt.Sprintf("emitter: unhandled statement node %T", n))
	}
}

func (g *Generator) emitDecl(d *ast.Decl) {
	if d.Init == nil {
		return
	}
	g.emitExpr(d.Init)
	g.emitStore(d.Ident)
}

// emitStore stores the value already on the stack into the storage
// location of an Ident, dispatching on its finalized scope.
func (g *Generator) emitStore(target ast.Expression) {
	ident := target.(*ast.Ident)
	desc := ident.NodeIdent
	switch desc.Scope {
	case scope.Local:
		g.emit("stloc %d", desc.Index)
	case scope.Param:
		g.emit("starg %d", desc.Index)
	case scope.Global:
		g.emit("stsfld %s Program::_gv%d", typeTag(desc.Type), desc.Index)
	}
}

func (g *Generator) emitIf(n *ast.If) {
	elseLabel := g.newLabel()
	endLabel := g.newLabel()
	g.emitExpr(n.Cond)
	g.branch("brfalse", elseLabel)
	g.emitStatement(n.Then)
	g.branch("br", endLabel)
	g.place(elseLabel)
	if n.Else != nil {
		g.emitStatement(n.Else)
	}
	g.place(endLabel)
}

func (g *Generator) emitWhile(n *ast.While) {
	startLabel := g.newLabel()
	endLabel := g.newLabel()
	g.place(startLabel)
	g.emitExpr(n.Cond)
	g.branch("brfalse", endLabel)
	g.emitStatement(n.Body)
	g.branch("br", startLabel)
	g.place(endLabel)
}

func (g *Generator) emitFor(n *ast.For) {
	g.emitStatement(n.Decl)
	startLabel := g.newLabel()
	endLabel := g.newLabel()
	g.place(startLabel)
	g.emitExpr(n.Cond)
	g.branch("brfalse", endLabel)
	g.emitStatement(n.Body)
	if n.Step != nil {
		g.emitStatement(n.Step)
	}
	g.branch("br", startLabel)
	g.place(endLabel)
}

// emitExpr emits an expression, leaving exactly one stack value of its
// node_type behind, per spec.md §4.4.
func (g *Generator) emitExpr(n ast.Expression) {
	switch node := n.(type) {
	case *ast.Literal:
		g.emitLiteral(node)
	case *ast.Ident:
		g.emitLoad(node)
	case *ast.BinOp:
		g.emitBinOp(node)
	case *ast.TypeConvert:
		g.emitConvert(node)
	case *ast.FuncCall:
		g.emitCall(node)
	default:
		panic(fmt.Sprintf("emitter: unhandled expression node %T", n))
	}
}

func (g *Generator) emitLiteral(l *ast.Literal) {
	switch v := l.Value.(type) {
	case int64:
		g.emit("ldc.i4 %d", v)
	case float64:
		g.emit("ldc.r8 %v", v)
	case string:
		g.emit("ldstr %q", v)
	case rune:
		g.emit("ldc.i2 %d", v)
	}
}

func (g *Generator) emitLoad(id *ast.Ident) {
	desc := id.NodeIdent
	switch desc.Scope {
	case scope.Local:
		g.emit("ldloc %d", desc.Index)
	case scope.Param:
		g.emit("ldarg %d", desc.Index)
	case scope.Global:
		g.emit("ldsfld %s Program::_gv%d", typeTag(desc.Type), desc.Index)
	}
}

func (g *Generator) emitCall(call *ast.FuncCall) {
	for _, arg := range call.Args.Args {
		g.emitExpr(arg)
	}
	fnType := call.Name.NodeType
	class := "Program"
	if call.Name.NodeIdent != nil && call.Name.NodeIdent.BuiltIn {
		class = "Runtime"
	}
	argTypes := make([]string, len(fnType.Params()))
	for i, p := range fnType.Params() {
		argTypes[i] = typeTag(p)
	}
	g.emit("call %s %s::%s(%s)", typeTag(fnType.ReturnType()), class, call.Name.Name, strings.Join(argTypes, ", "))
}

// emitBinOp emits both operands left-to-right, then the operator
// sequence the spec's per-operator rule names.
func (g *Generator) emitBinOp(b *ast.BinOp) {
	g.emitExpr(b.Arg1)
	g.emitExpr(b.Arg2)

	operandType := b.Arg1.(ast.Typed).Type()
	isStr := operandType.Equals(types.Str)

	switch b.Op {
	case types.Eq:
		if isStr {
			g.emit("call int32 string::op_Equality(string, string)")
		} else {
			g.emit("ceq")
		}
	case types.Ne:
		if isStr {
			g.emit("call int32 string::op_Inequality(string, string)")
		} else {
			g.emit("ceq")
			g.emit("ldc.i4.0")
			g.emit("ceq")
		}
	case types.Lt, types.Gt, types.Le, types.Ge:
		g.emitComparison(b.Op, isStr)
	case types.Add:
		if isStr || operandType.Equals(types.Char) {
			g.emit("call string Runtime::concat(string, string)")
		} else {
			g.emit("add")
		}
	case types.Sub:
		g.emit("sub")
	case types.Mul:
		g.emit("mul")
	case types.Div:
		g.emit("div")
	case types.Mod:
		g.emit("rem")
	case types.And:
		g.emit("and")
	case types.Or:
		g.emit("or")
	}
}

// emitComparison handles <,>,<=,>=: a direct opcode for non-STR
// operands, or a three-way Runtime::compare against zero for STR.
func (g *Generator) emitComparison(op types.BinOp, isStr bool) {
	if !isStr {
		switch op {
		case types.Lt:
			g.emit("clt")
		case types.Gt:
			g.emit("cgt")
		case types.Le:
			g.emit("cgt")
			g.emit("ldc.i4.0")
			g.emit("ceq")
		case types.Ge:
			g.emit("clt")
			g.emit("ldc.i4.0")
			g.emit("ceq")
		}
		return
	}

	g.emit("call int32 Runtime::compare(string, string)")
	g.emit("ldc.i4.0")
	switch op {
	case types.Lt:
		g.emit("clt")
	case types.Gt:
		g.emit("cgt")
	case types.Le:
		g.emit("cgt")
		g.emit("ldc.i4.0")
		g.emit("ceq")
	case types.Ge:
		g.emit("clt")
		g.emit("ldc.i4.0")
		g.emit("ceq")
	}
}

// emitConvert implements the TypeConvert emission rule. Per
// SPEC_FULL.md §6.2, the double-ceq boolean-normalization idiom the
// original applies to every INT-sourced conversion is dropped: INT→FLOAT
// emits conv.r8, INT→CHAR emits conv.i2, and every other conversion,
// including INT→STR, calls Runtime::convert.
func (g *Generator) emitConvert(c *ast.TypeConvert) {
	g.emitExpr(c.Expr)
	from := c.Expr.(ast.Typed).Type()

	switch {
	case from.Equals(types.Int) && c.To.Equals(types.Float):
		g.emit("conv.r8")
	case from.Equals(types.Int) && c.To.Equals(types.Char):
		g.emit("conv.i2")
	default:
		g.emit("call %s Runtime::convert(%s)", typeTag(c.To), typeTag(from))
	}
}
