package cmd

import (
	"fmt"
	"os"

	cerrors "github.com/cwbudde/minic-cil/internal/errors"
	"github.com/cwbudde/minic-cil/pkg/mlang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var msilOnly bool

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a mini-C source file and print its MSIL listing",
	Long: `Parse, check, and emit a mini-C source file.

Unless --msil-only is given, the AST is dumped before and after the
semantic check, for debugging. A semantic error is written to standard
error with an "Error: " prefix and exits with status 2.

Examples:
  mlangc compile program.mc
  mlangc compile --msil-only program.mc`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().BoolVar(&msilOnly, "msil-only", false, "suppress the pre- and post-check AST dumps, emit only the listing")
}

func runCompile(_ *cobra.Command, args []string) error {
	filename := args[0]

	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to read file %s: %v\n", filename, err)
		os.Exit(1)
	}
	source := string(content)

	logger.Debug("compiling", zap.String("file", filename))

	result, err := mlang.Compile(source, filename)
	if err != nil {
		ce, ok := err.(*mlang.CompileError)
		if !ok {
			return fmt.Errorf("internal error: %w", err)
		}
		formatted := cerrors.FormatErrors([]*cerrors.CompilerError{ce.Err}, true)
		switch ce.Stage {
		case mlang.StageSemantic:
			fmt.Fprintln(os.Stderr, "Error: "+formatted)
			os.Exit(2)
		default:
			fmt.Fprintln(os.Stderr, formatted)
			os.Exit(1)
		}
	}

	if !msilOnly {
		logger.Debug("dumping parsed AST (pre-check)")
		fmt.Println("; --- AST (parsed) ---")
		fmt.Println(result.PreCheckDump)
		fmt.Println("; --- AST (checked) ---")
		fmt.Println(mlang.DumpAST(result.CheckedAST))
		fmt.Println("; --- MSIL ---")
	}

	fmt.Println(result.Listing)
	return nil
}
