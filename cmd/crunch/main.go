// Command crunch generates combinatorial wordlists.
package main

import (
	"context"
	"os"

	"github.com/roach88/crunch/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
