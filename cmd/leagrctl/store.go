package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// storeCmd groups raw document inspection commands.
func storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect stored league documents",
	}
	cmd.AddCommand(storeInspectCmd())
	cmd.AddCommand(storeDatesCmd())
	return cmd
}

func storeInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a session's stored document (players, teams, games)",
		RunE:  runStoreInspect,
	}
	cmd.Flags().String("league", "", "league ID (required)")
	cmd.Flags().String("date", "", "session date, yyyy-mm-dd (required)")
	_ = cmd.MarkFlagRequired("league")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func runStoreInspect(cmd *cobra.Command, args []string) error {
	leagueID, _ := cmd.Flags().GetString("league")
	date, _ := cmd.Flags().GetString("date")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	sd, err := st.LoadSessionDoc(leagueID, date)
	if err != nil {
		return fmt.Errorf("loading session %s/%s: %w", leagueID, date, err)
	}
	printJSON(sd)
	return nil
}

func storeDatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dates",
		Short: "List every session date on record for a league",
		RunE:  runStoreDates,
	}
	cmd.Flags().String("league", "", "league ID (required)")
	_ = cmd.MarkFlagRequired("league")
	return cmd
}

func runStoreDates(cmd *cobra.Command, args []string) error {
	leagueID, _ := cmd.Flags().GetString("league")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	dates, err := st.ListSessionDates(leagueID)
	if err != nil {
		return fmt.Errorf("listing session dates: %w", err)
	}
	for _, d := range dates {
		fmt.Println(d)
	}
	return nil
}

// printJSON pretty-prints any value as indented JSON, for operator eyeballs.
func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("(failed to marshal: %v)\n", err)
		return
	}
	fmt.Println(string(b))
}
