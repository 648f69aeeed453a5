package main

import (
	"os"

	"tokobesi/terminal/cmd/posctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
