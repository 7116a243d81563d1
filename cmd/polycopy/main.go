package main

import (
	"os"

	"github.com/clde-code/polycopy/cmd/polycopy/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
