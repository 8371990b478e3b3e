package command

// root.go defines the root command for the libraryhub CLI and its global flags.

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var apiURL string // Global flag for API server URL

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "libraryhub",
	Short: "libraryhub - library command line client",
	Long: `libraryhub talks to the library API. Members can use it to:
- Browse and search the catalog
- Borrow and return books
- Reserve books that are out on loan

Use "libraryhub [command] --help" to see all available commands.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	defaultURL := os.Getenv("LIBRARYHUB_API")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	// Global persistent flags = available to all subcommands
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultURL, "API server URL (env LIBRARYHUB_API)")

	rootCmd.AddCommand(authCmd, bookCmd, borrowCmd, reservationCmd)
}
