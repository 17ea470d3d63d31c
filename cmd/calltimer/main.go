package main

import (
	"os"

	"github.com/psantana5/calltimer/cmd/calltimer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
