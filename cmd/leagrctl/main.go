// Command leagrctl is the operator CLI for leagr: rebuilding rankings
// offline and inspecting stored session/league documents without going
// through the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leagrctl",
	Short: "Operator tools for the leagr league engine",
	Long:  "leagrctl inspects and repairs leagr's on-disk league data: rebuilding ELO rankings for a season and dumping stored documents for debugging.",
}

func init() {
	rootCmd.PersistentFlags().String("data-dir", "./data", "root directory the league store reads/writes under")
	rootCmd.AddCommand(rankingsCmd())
	rootCmd.AddCommand(storeCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
