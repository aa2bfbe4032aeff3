package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	userID    string
)

var rootCmd = &cobra.Command{
	Use:   "shortlink",
	Short: "Command-line client for the shortlink service",
	Long: `Talks to a running shortlink server over its HTTP API.
Pass --user to act as an existing identity; creating a link without one
mints a fresh user id, printed with the result.`,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the shortlink server")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "user id sent in the X-User-ID header")

	rootCmd.AddCommand(createCmd, listCmd, deleteCmd, limitCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
