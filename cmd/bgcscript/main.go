// Command bgcscript compiles an algorithm script and runs its functions or
// drives it through a trial sequence.
package main

import (
	"fmt"
	"os"

	"github.com/UCRBrainGameCenter/BGC-Tools-sub004/pkg/app"
)

func main() {
	application := app.New(os.Stdout, os.Stderr)
	if err := application.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
