package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag  string
	userFlag int64
	rootCmd  = &cobra.Command{
		Use:   "memenotectl",
		Short: "CLI client for the Memenote reminder REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8000", "Memenote service base URL")
	rootCmd.PersistentFlags().Int64VarP(&userFlag, "user", "u", 1, "Acting user id")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
