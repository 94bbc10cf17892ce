package main

import (
	"os"

	"github.com/y0ug/scanvault/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
