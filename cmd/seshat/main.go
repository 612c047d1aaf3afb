package main

import (
	"os"

	"github.com/seshat-ai/seshat/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
