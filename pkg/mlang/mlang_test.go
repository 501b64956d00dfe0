package mlang_test

import (
	"strings"
	"testing"

	"github.com/cwbudde/minic-cil/pkg/mlang"
)

func TestCompileSuccess(t *testing.T) {
	res, err := mlang.Compile("int a = 5;", "prog.mc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Listing == "" {
		t.Fatal("expected a non-empty MSIL listing")
	}
	if !strings.Contains(res.Listing, ".class public Program") {
		t.Errorf("listing missing Program class, got:\n%s", res.Listing)
	}
	if res.ParsedAST == nil || res.CheckedAST == nil {
		t.Fatal("expected both ParsedAST and CheckedAST to be populated")
	}
}

func TestCompileParseError(t *testing.T) {
	_, err := mlang.Compile("int a = ;", "prog.mc")
	if err == nil {
		t.Fatal("expected a parse error")
	}
	ce, ok := err.(*mlang.CompileError)
	if !ok {
		t.Fatalf("expected *CompileError, got %#v", err)
	}
	if ce.Stage != mlang.StageParse {
		t.Errorf("expected StageParse, got %s", ce.Stage)
	}
}

func TestCompileSemanticError(t *testing.T) {
	_, err := mlang.Compile("int a = b;", "prog.mc")
	if err == nil {
		t.Fatal("expected a semantic error")
	}
	ce, ok := err.(*mlang.CompileError)
	if !ok {
		t.Fatalf("expected *CompileError, got %#v", err)
	}
	if ce.Stage != mlang.StageSemantic {
		t.Errorf("expected StageSemantic, got %s", ce.Stage)
	}
	if !strings.Contains(ce.Error(), "not found") {
		t.Errorf("expected message to mention not found, got %q", ce.Error())
	}
}

func TestCompileUsesBuiltinPrelude(t *testing.T) {
	res, err := mlang.Compile(`write("hello");`, "prog.mc")
	if err != nil {
		t.Fatalf("unexpected error calling prelude builtin: %v", err)
	}
	if !strings.Contains(res.Listing, "Runtime::write") {
		t.Errorf("expected call routed to Runtime, got:\n%s", res.Listing)
	}
}

func TestDumpAST(t *testing.T) {
	res, err := mlang.Compile("int a = 5;", "prog.mc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dump := mlang.DumpAST(res.ParsedAST)
	if dump == "" {
		t.Fatal("expected a non-empty AST dump")
	}
}

