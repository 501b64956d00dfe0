package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// buildBinary compiles mlangc once and returns the path to the binary.
func buildBinary(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	binary := filepath.Join(dir, "mlangc")
	cmd := exec.Command("go", "build", "-o", binary, ".")
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build mlangc: %v\n%s", err, out)
	}
	return binary
}

func TestCLICompilesTestdataScripts(t *testing.T) {
	binary := buildBinary(t)

	scripts := []string{
		"../../testdata/global_decl.mc",
		"../../testdata/int_to_float.mc",
		"../../testdata/string_concat.mc",
		"../../testdata/func_call.mc",
		"../../testdata/for_loop.mc",
		"../../testdata/hello.mc",
	}

	for _, script := range scripts {
		t.Run(filepath.Base(script), func(t *testing.T) {
			if _, err := os.Stat(script); os.IsNotExist(err) {
				t.Fatalf("testdata script %s does not exist", script)
			}

			out, err := exec.Command(binary, "compile", "--msil-only", script).CombinedOutput()
			if err != nil {
				t.Fatalf("mlangc failed on %s: %v\n%s", script, err, out)
			}
			if !strings.Contains(string(out), ".class public Program") {
				t.Errorf("expected an emitted MSIL listing, got:\n%s", out)
			}
		})
	}
}

func TestCLIExitsTwoOnSemanticError(t *testing.T) {
	binary := buildBinary(t)

	cmd := exec.Command(binary, "compile", "../../testdata/undeclared_call.mc")
	out, err := cmd.CombinedOutput()

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected the process to exit with an error, got %v\n%s", err, out)
	}
	if exitErr.ExitCode() != 2 {
		t.Errorf("expected exit code 2, got %d\n%s", exitErr.ExitCode(), out)
	}
	if !strings.Contains(string(out), "Error:") {
		t.Errorf("expected stderr to carry the Error: prefix, got:\n%s", out)
	}
}

func TestCLIDumpsASTWithoutMsilOnly(t *testing.T) {
	binary := buildBinary(t)

	out, err := exec.Command(binary, "compile", "../../testdata/global_decl.mc").CombinedOutput()
	if err != nil {
		t.Fatalf("mlangc failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "AST (parsed)") || !strings.Contains(string(out), "AST (checked)") {
		t.Errorf("expected both AST dumps without --msil-only, got:\n%s", out)
	}
}
