package main

import (
	"fmt"
	"os"

	"github.com/jenkinsci/incrementals-tools/cmd/incrementals/commands"
	"github.com/jenkinsci/incrementals-tools/cmd/incrementals/internal/clierr"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}
