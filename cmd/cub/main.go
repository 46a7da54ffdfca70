package main

import (
	"os"

	"github.com/nhle/cub-fuel-log/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
