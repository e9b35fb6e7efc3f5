package main

import (
	"os"

	"whisperchat/cmd/whisperchat/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
