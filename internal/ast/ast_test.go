package ast

import (
	"strings"
	"testing"

	"github.com/cwbudde/minic-cil/internal/scope"
	"github.com/cwbudde/minic-cil/internal/types"
)

func TestDumpUnannotated(t *testing.T) {
	tree := &BinOp{
		Op:   types.Add,
		Arg1: &Ident{Name: "x"},
		Arg2: &Literal{Text: "1", Value: int64(1)},
	}

	out := Dump(tree)
	if !strings.Contains(out, "+") || !strings.Contains(out, "x") || !strings.Contains(out, "1") {
		t.Fatalf("dump missing expected node text:\n%s", out)
	}
	if strings.Contains(out, "=>") {
		t.Fatalf("unannotated dump should not contain a type/ident suffix:\n%s", out)
	}
}

func TestDumpAnnotated(t *testing.T) {
	ident := &Ident{Name: "x"}
	ident.NodeType = types.Int
	ident.NodeIdent = &scope.IdentDesc{Name: "x", Type: types.Int, Scope: scope.Global, Index: 0}

	out := Dump(ident)
	if !strings.Contains(out, "=> int, int, GLOBAL, 0") {
		t.Fatalf("expected annotated suffix, got:\n%s", out)
	}
}

func TestChildrenOrdering(t *testing.T) {
	cond := &Literal{Text: "1", Value: int64(1)}
	thenBranch := &Return{Value: &Literal{Text: "0", Value: int64(0)}}
	node := &If{Cond: cond, Then: thenBranch}

	kids := node.Children()
	if len(kids) != 2 || kids[0] != Node(cond) || kids[1] != Node(thenBranch) {
		t.Fatalf("If.Children() returned unexpected set: %v", kids)
	}
}
