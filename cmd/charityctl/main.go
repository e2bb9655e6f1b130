package main

import (
	"os"

	"github.com/dalemusser/charityhub/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
