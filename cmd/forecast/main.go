package main

import (
	"os"

	"github.com/rustyeddy/forecast/cmd/forecast/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
