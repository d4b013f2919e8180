package main

import (
	"os"

	"github.com/taskmaster/tracker/cmd/tracker/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
