package main

import (
	"os"

	"github.com/aegisfield/fieldops/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
