// Command memorychain stores and verifies content hashes and pays miners
// from a program-controlled vault.
package main

import (
	"os"

	"github.com/roach88/memorychain/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
