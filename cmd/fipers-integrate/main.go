package main

import (
	"os"

	"github.com/fipers/fipers-integrate/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
