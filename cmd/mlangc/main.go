// Command mlangc compiles a mini-C source file to a textual MSIL listing.
package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/minic-cil/cmd/mlangc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
