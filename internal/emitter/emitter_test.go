package emitter_test

import (
	"os"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/cwbudde/minic-cil/internal/emitter"
	"github.com/cwbudde/minic-cil/internal/parser"
	"github.com/cwbudde/minic-cil/internal/scope"
	"github.com/cwbudde/minic-cil/internal/semantic"
)

func TestMain(m *testing.M) {
	v := m.Run()
	snaps.Clean(m)
	os.Exit(v)
}

func compile(t *testing.T, src string) string {
	t.Helper()
	prog, err := parser.New(src, "test.mc").Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	root := scope.NewRoot()
	if err := semantic.Check(prog, root); err != nil {
		t.Fatalf("unexpected semantic error: %v", err)
	}
	return emitter.EmitProgram(prog)
}

// These mirror spec.md §8's concrete end-to-end scenarios 1-3 and 6.

func TestEmitGlobalDecl(t *testing.T) {
	snaps.MatchSnapshot(t, compile(t, "int a = 5;"))
}

func TestEmitImplicitIntToFloatConversion(t *testing.T) {
	snaps.MatchSnapshot(t, compile(t, "int x = 1; float y = x;"))
}

func TestEmitStringConcatWithCharCoercion(t *testing.T) {
	snaps.MatchSnapshot(t, compile(t, `string s = "a" + 'b';`))
}

func TestEmitFunctionDeclAndCall(t *testing.T) {
	snaps.MatchSnapshot(t, compile(t, "int foo(int a) { return a + 1; } foo(3);"))
}

func TestEmitForLoop(t *testing.T) {
	snaps.MatchSnapshot(t, compile(t, "for (int i = 0; i < 3; i = i + 1) { }"))
}

func TestEmitIfElse(t *testing.T) {
	snaps.MatchSnapshot(t, compile(t, "int a = 1; if (a) { a = 2; } else { a = 3; }"))
}

func TestEmitWhileLoop(t *testing.T) {
	snaps.MatchSnapshot(t, compile(t, "int i = 0; while (i < 10) { i = i + 1; }"))
}

// Fields must all precede all functions, regardless of source order
// (spec.md §4.4 "Program emission" is two separate passes).
func TestEmitFieldsPrecedeFunctionsRegardlessOfSourceOrder(t *testing.T) {
	out := compile(t, "int foo() { return 0; } int g = 5;")
	fieldIdx := strings.Index(out, ".field")
	methodIdx := strings.Index(out, ".method public static int32 foo")
	if fieldIdx == -1 || methodIdx == -1 {
		t.Fatalf("expected both a .field and a foo .method, got:\n%s", out)
	}
	if fieldIdx > methodIdx {
		t.Errorf("expected .field to precede the foo .method even though g is declared after foo, got:\n%s", out)
	}
}

// Every "IL_<n>" a branch instruction refers to must resolve to exactly
// one line carrying that same tag as a label declaration (spec.md §8).
func TestEveryLabelReferenceResolvesToOneLine(t *testing.T) {
	out := compile(t, "for (int i = 0; i < 3; i = i + 1) { if (i == 1) { i = i; } }")

	declared := map[string]int{}
	referenced := map[string]int{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if idx := strings.Index(line, ": "); idx != -1 && strings.HasPrefix(line, "IL_") {
			for _, tag := range strings.Split(line[:idx], ", ") {
				declared[tag]++
			}
			line = line[idx+2:]
		}
		if strings.HasPrefix(line, "br ") || strings.HasPrefix(line, "brfalse ") {
			fields := strings.Fields(line)
			referenced[fields[len(fields)-1]]++
		}
	}

	for tag, count := range referenced {
		if count == 0 {
			continue
		}
		if declared[tag] != 1 {
			t.Errorf("label %s referenced %d time(s) but declared %d time(s)", tag, count, declared[tag])
		}
	}
}
