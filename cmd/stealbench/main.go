package main

import (
	"fmt"
	"os"

	"github.com/threadworks/stealpool/internal/cli"
)

func main() {
	// Setup signal handling for graceful shutdown
	ctx := cli.SetupSignalHandler()

	// Execute the CLI
	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "stealbench:", err)
		os.Exit(1)
	}
}
