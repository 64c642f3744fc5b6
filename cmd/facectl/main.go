package main

import (
	"os"

	"github.com/saturnino-fabrica-de-software/facesim/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
