package main

import (
	"os"

	"github.com/matthewbaird/tapestry/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
