package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "resellerctl",
		Short:   "Operator tooling for the reseller backend",
		Version: Version,
	}

	rootCmd.AddCommand(createAccountCmd())
	rootCmd.AddCommand(metricsCmd())
	rootCmd.AddCommand(signCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
