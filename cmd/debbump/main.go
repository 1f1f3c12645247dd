package main

import (
	"os"

	"github.com/debbump/debbump/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
