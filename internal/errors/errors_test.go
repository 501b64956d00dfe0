package errors

import (
	"strings"
	"testing"

	"github.com/cwbudde/minic-cil/internal/token"
)

func TestFormatPointsCaretAtColumn(t *testing.T) {
	src := "int x = y + 1;\n"
	err := NewCompilerError("semantic", token.Position{Line: 1, Column: 9}, "unknown identifier y", src, "prog.mc")

	out := err.Format(false)
	lines := strings.Split(out, "\n")
	if len(lines) < 3 {
		t.Fatalf("expected header+source+caret lines, got:\n%s", out)
	}
	caretCol := strings.Index(lines[2], "^")
	if caretCol == -1 {
		t.Fatalf("expected a caret line, got %q", lines[2])
	}
	if want := strings.Index(lines[1], "y"); caretCol != want {
		t.Errorf("caret at offset %d, want %d (under column 9, the y)", caretCol, want)
	}
}

func TestFormatErrorsSingleVsMultiple(t *testing.T) {
	one := []*CompilerError{NewCompilerError("parse", token.Position{Line: 1, Column: 1}, "boom", "", "")}
	if strings.Contains(FormatErrors(one, false), "Compilation failed") {
		t.Error("a single error should not be wrapped in a batch header")
	}

	two := append(one, NewCompilerError("parse", token.Position{Line: 2, Column: 1}, "bang", "", ""))
	out := FormatErrors(two, false)
	if !strings.Contains(out, "Compilation failed with 2 error(s)") {
		t.Errorf("expected batch header for multiple errors, got:\n%s", out)
	}
}
