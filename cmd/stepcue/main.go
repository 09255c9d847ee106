package main

import (
	"os"

	"github.com/stepcue/stepcue/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
