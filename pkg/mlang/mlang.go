// Package mlang is the façade the CLI (and any embedder) drives: source
// text in, an AST dump and an MSIL listing out, or a structured
// CompileError describing the first pipeline failure.
package mlang

import (
	"github.com/cwbudde/minic-cil/internal/ast"
	"github.com/cwbudde/minic-cil/internal/emitter"
	cerrors "github.com/cwbudde/minic-cil/internal/errors"
	"github.com/cwbudde/minic-cil/internal/parser"
	"github.com/cwbudde/minic-cil/internal/semantic"
)

// Stage names the pipeline phase a CompileError originated in.
type Stage string

const (
	StageParse    Stage = "parse"
	StageSemantic Stage = "semantic"
)

// CompileError wraps the pipeline's first failure with the stage it
// came from and the formatted diagnostic (spec.md §7: no recovery).
type CompileError struct {
	Stage Stage
	Err   *cerrors.CompilerError
}

func (e *CompileError) Error() string { return e.Err.Error() }

// Result carries everything a caller might want out of a successful
// compilation: the AST as parsed, the AST after semantic annotation
// (the same tree, mutated in place), and the final MSIL listing.
type Result struct {
	ParsedAST  *ast.StatementList
	CheckedAST *ast.StatementList
	Listing    string

	// PreCheckDump is the AST dump taken before the semantic walk runs.
	// The analyzer mutates the tree in place (spec.md §9), so ParsedAST
	// and CheckedAST end up pointing at the same, already-annotated
	// tree by the time Compile returns; this field is the only record
	// of what the tree looked like before annotation.
	PreCheckDump string
}

// Compile runs the full pipeline — parse, semantic check, emit — over
// source, tagging diagnostics with file.
func Compile(source, file string) (*Result, error) {
	prog, err := parser.New(source, file).Parse()
	if err != nil {
		return nil, &CompileError{Stage: StageParse, Err: err.(*cerrors.CompilerError)}
	}

	global, err := semantic.NewGlobalScope()
	if err != nil {
		if ce, ok := err.(*cerrors.CompilerError); ok {
			return nil, &CompileError{Stage: StageParse, Err: ce}
		}
		return nil, &CompileError{Stage: StageSemantic, Err: err.(*semantic.Error).ToCompilerError(semantic.Prelude, "<prelude>")}
	}

	preCheckDump := ast.Dump(prog)

	if err := semantic.Check(prog, global); err != nil {
		semErr, ok := err.(*semantic.Error)
		if !ok {
			semErr = &semantic.Error{Message: err.Error()}
		}
		return nil, &CompileError{Stage: StageSemantic, Err: semErr.ToCompilerError(source, file)}
	}

	listing := emitter.EmitProgram(prog)
	return &Result{ParsedAST: prog, CheckedAST: prog, Listing: listing, PreCheckDump: preCheckDump}, nil
}

// DumpAST renders n using the same tree layout for both the pre- and
// post-check listings the CLI prints.
func DumpAST(n ast.Node) string { return ast.Dump(n) }
