package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/veldt/labelsmith/internal/cli"
)

func main() {
	// Parse command-line arguments
	var args cli.Args
	parser := arg.MustParse(&args)

	// Create CLI instance with args for database location support
	cliHandler, err := cli.NewWithArgs(&args)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer cliHandler.Close()

	// Execute the command (bare invocation opens the history browser)
	if err := cliHandler.Execute(&args); err != nil {
		fmt.Printf("Error: %v\n", err)

		// If it's an argument validation error, show usage
		if args.Edit != nil || args.Save != nil || args.Asset != nil || args.Template != nil || args.Config != nil {
			fmt.Println()
			parser.WriteUsage(os.Stderr)
		}
		os.Exit(1)
	}
}
