package main

import (
	"os"

	"github.com/hardstop/hardstop/cmd/hardstop/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
