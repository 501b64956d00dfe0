// Package semantic implements the recursive tree walk of spec.md §4.3:
// it resolves identifiers, rejects ill-typed programs, inserts
// synthetic TypeConvert nodes, and assigns a storage class and slot
// index to every declared identifier. The first failure aborts the
// walk, per spec.md §7 — there is no error recovery.
package semantic

import (
	"fmt"

	"github.com/cwbudde/minic-cil/internal/ast"
	"github.com/cwbudde/minic-cil/internal/errors"
	"github.com/cwbudde/minic-cil/internal/parser"
	"github.com/cwbudde/minic-cil/internal/scope"
	"github.com/cwbudde/minic-cil/internal/token"
	"github.com/cwbudde/minic-cil/internal/types"
)

// Kind classifies a SemanticError per the taxonomy of spec.md §7.
type Kind int

const (
	UnknownType Kind = iota
	UndeclaredIdent
	DuplicateDecl
	ArityMismatch
	NotConvertible
	OperatorNotApplicable
	ReturnOutsideFunction
	NestedFuncDecl
	UnknownLiteral
	ArraysUnsupported
)

// Error is the single diagnostic kind the analyzer ever raises.
type Error struct {
	Kind    Kind
	Message string
	Pos     token.Position
}

func (e *Error) Error() string { return e.Message }

// ToCompilerError adapts a Error into the shared diagnostic formatter
// (internal/errors) so the CLI can render it with source context.
func (e *Error) ToCompilerError(source, file string) *errors.CompilerError {
	return errors.NewCompilerError("semantic", e.Pos, e.Message, source, file)
}

func errAt(kind Kind, n ast.Node, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: token.Position{Line: n.Line()}}
}

// Check walks n, annotating it in place. It returns the first error
// encountered, or nil if the subtree is well-typed.
func Check(n ast.Node, sc *scope.Scope) error {
	switch node := n.(type) {
	case *ast.Literal:
		return checkLiteral(node)
	case *ast.Ident:
		return checkIdent(node, sc)
	case *ast.DeclType:
		return checkDeclType(node)
	case *ast.BinOp:
		return checkBinOp(node, sc)
	case *ast.TypeConvert:
		return nil // node_type is set at construction; never produced by source
	case *ast.Assign:
		return checkAssign(node, sc)
	case *ast.StatementList:
		return checkStatementList(node, sc)
	case *ast.If:
		return checkIf(node, sc)
	case *ast.While:
		return checkWhile(node, sc)
	case *ast.For:
		return checkFor(node, sc)
	case *ast.Decl:
		return checkDecl(node, sc)
	case *ast.DeclList:
		return checkDeclList(node, sc)
	case *ast.FuncDecl:
		return checkFuncDecl(node, sc)
	case *ast.ValueList:
		return checkValueList(node, sc)
	case *ast.FuncCall:
		return checkFuncCall(node, sc)
	case *ast.Return:
		return checkReturn(node, sc)
	case *ast.ArrayDecl:
		return errAt(ArraysUnsupported, node, "arrays are not supported")
	case *ast.ArrayIndex:
		return errAt(ArraysUnsupported, node, "arrays are not supported")
	default:
		return fmt.Errorf("semantic: unhandled node type %T", n)
	}
}

func checkLiteral(n *ast.Literal) error {
	switch n.Value.(type) {
	case int64:
		n.NodeType = types.Int
	case float64:
		n.NodeType = types.Float
	case string:
		n.NodeType = types.Str
	case rune:
		n.NodeType = types.Char
	default:
		return errAt(UnknownLiteral, n, "unknown literal type")
	}
	return nil
}

func checkIdent(n *ast.Ident, sc *scope.Scope) error {
	ident := sc.Lookup(n.Name)
	if ident == nil {
		return errAt(UndeclaredIdent, n, "identifier %s not found", n.Name)
	}
	n.NodeType = ident.Type
	n.NodeIdent = ident
	return nil
}

func checkDeclType(n *ast.DeclType) error {
	t, err := types.FromStr(n.Name)
	if err != nil {
		return errAt(UnknownType, n, "unknown type %s", n.Name)
	}
	n.NodeType = t
	return nil
}

// coerce wraps expr in a TypeConvert to target if the types differ and
// an implicit conversion edge exists; it errors otherwise. comment
// names the context for the error message ("condition", "return
// value", ...).
func coerce(expr ast.Expression, target *types.TypeDesc, self ast.Node, comment string) (ast.Expression, error) {
	typed := expr.(ast.Typed)
	from := typed.Type()
	if from.Equals(target) {
		return expr, nil
	}
	if !types.CanConvert(from, target) {
		suffix := ""
		if comment != "" {
			suffix = " (" + comment + ")"
		}
		return nil, errAt(NotConvertible, self, "type %s not convertible to %s%s", from, target, suffix)
	}
	conv := &ast.TypeConvert{Meta: ast.Meta{Row: self.Line(), NodeType: target}, Expr: expr, To: target}
	return conv, nil
}

func checkBinOp(n *ast.BinOp, sc *scope.Scope) error {
	if err := Check(n.Arg1, sc); err != nil {
		return err
	}
	if err := Check(n.Arg2, sc); err != nil {
		return err
	}

	t1, t2 := n.Arg1.(ast.Typed).Type(), n.Arg2.(ast.Typed).Type()

	if t1.IsSimple() && t2.IsSimple() {
		if result, ok := types.LookupBinOp(n.Op, t1.Base(), t2.Base()); ok {
			n.NodeType = types.FromBase(result)
			return nil
		}

		for _, candidate := range types.ConvertibleTargets(t2.Base()) {
			if result, ok := types.LookupBinOp(n.Op, t1.Base(), candidate); ok {
				converted, err := coerce(n.Arg2, types.FromBase(candidate), n, "")
				if err != nil {
					return err
				}
				n.Arg2 = converted
				n.NodeType = types.FromBase(result)
				return nil
			}
		}
		for _, candidate := range types.ConvertibleTargets(t1.Base()) {
			if result, ok := types.LookupBinOp(n.Op, candidate, t2.Base()); ok {
				converted, err := coerce(n.Arg1, types.FromBase(candidate), n, "")
				if err != nil {
					return err
				}
				n.Arg1 = converted
				n.NodeType = types.FromBase(result)
				return nil
			}
		}
	}

	return errAt(OperatorNotApplicable, n, "operator %s not applicable to types (%s, %s)", n.Op, t1, t2)
}

func checkAssign(n *ast.Assign, sc *scope.Scope) error {
	if err := Check(n.Var, sc); err != nil {
		return err
	}
	if err := Check(n.Val, sc); err != nil {
		return err
	}
	target := n.Var.(ast.Typed).Type()
	converted, err := coerce(n.Val, target, n, "assigned value")
	if err != nil {
		return err
	}
	n.Val = converted
	n.NodeType = target
	return nil
}

func checkStatementList(n *ast.StatementList, sc *scope.Scope) error {
	inner := sc
	if !n.Program {
		inner = scope.NewChild(sc)
	}
	for _, stmt := range n.Stmts {
		if err := Check(stmt, inner); err != nil {
			return err
		}
	}
	n.NodeType = types.Void
	return nil
}

func checkIf(n *ast.If, sc *scope.Scope) error {
	if err := Check(n.Cond, sc); err != nil {
		return err
	}
	cond, err := coerce(n.Cond, types.Int, n, "condition")
	if err != nil {
		return err
	}
	n.Cond = cond
	if err := Check(n.Then, scope.NewChild(sc)); err != nil {
		return err
	}
	if n.Else != nil {
		if err := Check(n.Else, scope.NewChild(sc)); err != nil {
			return err
		}
	}
	n.NodeType = types.Void
	return nil
}

func checkWhile(n *ast.While, sc *scope.Scope) error {
	if err := Check(n.Cond, sc); err != nil {
		return err
	}
	cond, err := coerce(n.Cond, types.Int, n, "condition")
	if err != nil {
		return err
	}
	n.Cond = cond
	if err := Check(n.Body, scope.NewChild(sc)); err != nil {
		return err
	}
	n.NodeType = types.Void
	return nil
}

func checkFor(n *ast.For, sc *scope.Scope) error {
	header := scope.NewChild(sc)
	if err := Check(n.Decl, header); err != nil {
		return err
	}
	if n.Cond == nil {
		n.Cond = &ast.Literal{Meta: ast.Meta{Row: n.Row}, Text: "1", Value: int64(1)}
	}
	if err := Check(n.Cond, header); err != nil {
		return err
	}
	cond, err := coerce(n.Cond, types.Int, n, "condition")
	if err != nil {
		return err
	}
	n.Cond = cond
	if n.Step != nil {
		if err := Check(n.Step, header); err != nil {
			return err
		}
	}
	if err := Check(n.Body, scope.NewChild(header)); err != nil {
		return err
	}
	n.NodeType = types.Void
	return nil
}

func checkDecl(n *ast.Decl, sc *scope.Scope) error {
	if err := Check(n.DeclType, sc); err != nil {
		return err
	}
	added, err := sc.Add(&scope.IdentDesc{Name: n.Ident.Name, Type: n.DeclType.NodeType})
	if err != nil {
		return errAt(DuplicateDecl, n, "%s", err.Error())
	}
	if err := Check(n.Ident, sc); err != nil {
		return err
	}
	if n.Init != nil {
		if err := Check(n.Init, sc); err != nil {
			return err
		}
		// Open-question decision (see SPEC_FULL.md §6.1): unlike the
		// original, coerce the initializer to the declared type instead
		// of silently accepting a type mismatch.
		converted, err := coerce(n.Init, added.Type, n, "initializer")
		if err != nil {
			return err
		}
		n.Init = converted
	}
	n.NodeType = types.Void
	return nil
}

func checkDeclList(n *ast.DeclList, sc *scope.Scope) error {
	for _, param := range n.Params {
		if err := Check(param, sc); err != nil {
			return err
		}
		added, err := sc.Add(&scope.IdentDesc{Name: param.Ident.Name, Type: param.DeclType.NodeType, Scope: scope.Param})
		if err != nil {
			return errAt(DuplicateDecl, param, "%s", err.Error())
		}
		param.Ident.NodeIdent = added
	}
	n.NodeType = types.Void
	return nil
}

func checkFuncDecl(n *ast.FuncDecl, sc *scope.Scope) error {
	if sc.CurrFunc() != nil {
		return errAt(NestedFuncDecl, n, "function declaration (%s) inside another function is not supported", n.Name.Name)
	}
	if err := Check(n.FuncType, sc); err != nil {
		return err
	}

	fnScope := scope.NewChild(sc)
	placeholder := &scope.IdentDesc{Name: "", Type: types.Void}
	fnScope.SetFunc(placeholder)

	if err := Check(n.Params, fnScope); err != nil {
		return err
	}

	paramTypes := make([]*types.TypeDesc, len(n.Params.Params))
	for i, p := range n.Params.Params {
		paramTypes[i] = p.DeclType.NodeType
	}
	fnType := types.NewFunc(n.FuncType.NodeType, paramTypes...)
	fnIdent := &scope.IdentDesc{Name: n.Name.Name, Type: fnType}

	added, err := sc.CurrGlobal().Add(fnIdent)
	if err != nil {
		return errAt(DuplicateDecl, n.Name, "duplicate function %s", n.Name.Name)
	}
	n.Name.NodeType = fnType
	n.Name.NodeIdent = added
	fnScope.SetFunc(added)

	if err := Check(n.Body, fnScope); err != nil {
		return err
	}
	n.NodeType = types.Void
	return nil
}

func checkValueList(n *ast.ValueList, sc *scope.Scope) error {
	for _, arg := range n.Args {
		if err := Check(arg, sc); err != nil {
			return err
		}
	}
	n.NodeType = types.Void
	return nil
}

func checkFuncCall(n *ast.FuncCall, sc *scope.Scope) error {
	fn := sc.Lookup(n.Name.Name)
	if fn == nil {
		return errAt(UndeclaredIdent, n, "function %s not found", n.Name.Name)
	}
	if !fn.Type.IsFunc() {
		return errAt(OperatorNotApplicable, n, "identifier %s is not a function", fn.Name)
	}
	params := fn.Type.Params()
	if len(params) != len(n.Args.Args) {
		return errAt(ArityMismatch, n, "argument count for %s does not match (expected %d, got %d)",
			fn.Name, len(params), len(n.Args.Args))
	}

	converted := make([]ast.Expression, len(n.Args.Args))
	var declStr, factStr string
	failed := false
	for i, arg := range n.Args.Args {
		if err := Check(arg, sc); err != nil {
			return err
		}
		if declStr != "" {
			declStr += ", "
		}
		declStr += params[i].String()
		if factStr != "" {
			factStr += ", "
		}
		factStr += arg.(ast.Typed).Type().String()

		c, err := coerce(arg, params[i], n, "")
		if err != nil {
			failed = true
			continue
		}
		converted[i] = c
	}
	if failed {
		return errAt(NotConvertible, n,
			"actual argument types (%s) of function %s do not match and are not convertible to formal types (%s)",
			factStr, fn.Name, declStr)
	}

	n.Args.Args = converted
	n.Name.NodeType = fn.Type
	n.Name.NodeIdent = fn
	n.NodeType = fn.Type.ReturnType()
	return nil
}

func checkReturn(n *ast.Return, sc *scope.Scope) error {
	inner := scope.NewChild(sc)
	if n.Value != nil {
		if err := Check(n.Value, inner); err != nil {
			return err
		}
	}
	funcScope := sc.CurrFunc()
	if funcScope == nil {
		return errAt(ReturnOutsideFunction, n, "return statement is only valid inside a function")
	}
	if n.Value != nil {
		converted, err := coerce(n.Value, funcScope.Func().Type.ReturnType(), n, "return value")
		if err != nil {
			return err
		}
		n.Value = converted
	}
	n.NodeType = types.Void
	return nil
}

// Prelude is the fixed source snippet bootstrapping the five built-in
// callables spec.md §4.5 requires (input/write/writeline/to_int/to_float).
const Prelude = `
string input() { }
void write(string s0) { }
void writeline(string s1) { }
int to_int(string s2) { }
float to_float(string s3) { }
`

// NewGlobalScope parses and checks Prelude through the same front end
// as user programs, marks every resulting identifier BuiltIn, and
// resets the global slot allocator so user globals number from zero
// (spec.md §4.5 / §9).
func NewGlobalScope() (*scope.Scope, error) {
	root := scope.NewRoot()
	prog, err := parser.New(Prelude, "<prelude>").Parse()
	if err != nil {
		return nil, err
	}
	if err := Check(prog, root); err != nil {
		return nil, err
	}
	for _, ident := range root.Idents() {
		ident.BuiltIn = true
	}
	root.ResetGlobalVarIndex()
	return root, nil
}
