package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vgebrev/leagr/internal/rankings"
	"github.com/vgebrev/leagr/internal/store"
)

// rankingsCmd groups ranking-related operator commands.
func rankingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rankings",
		Short: "Inspect and rebuild league rankings",
	}
	cmd.AddCommand(rankingsRebuildCmd())
	cmd.AddCommand(rankingsShowCmd())
	return cmd
}

func rankingsRebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild a league's rankings for a year from its stored sessions",
		Long: "Replays every session document for the given year through the ELO " +
			"engine and overwrites that year's rankings document. Use after a " +
			"manual edit to a session's scores, or after changing a league's " +
			"rankings settings.",
		RunE: runRankingsRebuild,
	}
	cmd.Flags().String("league", "", "league ID to rebuild (required)")
	cmd.Flags().Int("year", 0, "calendar year to rebuild (required)")
	_ = cmd.MarkFlagRequired("league")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func runRankingsRebuild(cmd *cobra.Command, args []string) error {
	leagueID, _ := cmd.Flags().GetString("league")
	year, _ := cmd.Flags().GetInt("year")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}

	dates, err := st.ListSessionDates(leagueID)
	if err != nil {
		return fmt.Errorf("listing session dates: %w", err)
	}

	settings, err := st.LoadSettings(leagueID)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	var sessions []rankings.SessionInput
	for _, date := range dates {
		if sessionYear(date) != year {
			continue
		}
		sd, err := st.LoadSessionDoc(leagueID, date)
		if err != nil {
			return fmt.Errorf("loading session %s: %w", date, err)
		}
		sessions = append(sessions, rankings.SessionInput{
			Date:     date,
			Teams:    sd.Teams,
			Games:    sd.Games,
			Settings: settings,
		})
	}
	if len(sessions) == 0 {
		fmt.Printf("no sessions found for %s in %d, nothing to rebuild\n", leagueID, year)
		return nil
	}

	prior, err := st.LoadRankingsYear(leagueID, year-1)
	if err != nil {
		return fmt.Errorf("loading prior year rankings: %w", err)
	}

	rebuilt := rankings.RebuildYear(year, sessions, &prior)
	if err := st.SaveRankingsYear(leagueID, year, rebuilt); err != nil {
		return fmt.Errorf("saving rankings: %w", err)
	}

	fmt.Printf("rebuilt %d rankings for %s %d from %d session(s)\n", len(rebuilt.Players), leagueID, year, len(sessions))
	return nil
}

func rankingsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a league's rankings document for a year",
		RunE:  runRankingsShow,
	}
	cmd.Flags().String("league", "", "league ID (required)")
	cmd.Flags().Int("year", 0, "calendar year (required)")
	_ = cmd.MarkFlagRequired("league")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func runRankingsShow(cmd *cobra.Command, args []string) error {
	leagueID, _ := cmd.Flags().GetString("league")
	year, _ := cmd.Flags().GetInt("year")

	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	ry, err := st.LoadRankingsYear(leagueID, year)
	if err != nil {
		return fmt.Errorf("loading rankings: %w", err)
	}
	printJSON(ry)
	return nil
}

// openStore opens the league store rooted at the --data-dir persistent flag.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dataDir, err := cmd.Flags().GetString("data-dir")
	if err != nil {
		return nil, err
	}
	return store.New(dataDir), nil
}

// sessionYear extracts the calendar year a session date belongs to.
func sessionYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year := 0
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}
