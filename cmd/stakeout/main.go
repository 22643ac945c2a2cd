package main

import (
	"fmt"
	"os"

	"github.com/example/stakeout/internal/cli"
	"github.com/example/stakeout/internal/version"
	"github.com/example/stakeout/internal/wire"
)

func main() {
	rootCmd := cli.NewRootCmd(version.String())

	err := rootCmd.Execute()
	if closeErr := wire.CloseDefault(); closeErr != nil {
		fmt.Fprintln(os.Stderr, closeErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
