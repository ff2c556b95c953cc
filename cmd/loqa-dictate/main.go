package main

import (
	"os"

	"github.com/loqalabs/loqa-dictate/cmd/loqa-dictate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
