package main

import (
	"os"

	"github.com/open-rust-Initiative/cargo-plugins/cmd/cargo-quality/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(2)
	}
}
