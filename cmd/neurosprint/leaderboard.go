package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/neurosprint/internal/store"
	"github.com/ayusman/neurosprint/internal/tui"
)

var (
	boardGender     string
	boardAgeFrom    int
	boardAgeTo      int
	boardDifficulty string
	boardLimit      int
	boardReplica    string
	boardLocal      bool
)

func newLeaderboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank users by average reaction time",
		Args:  cobra.NoArgs,
		RunE:  runLeaderboardCmd,
	}
	cmd.Flags().StringVar(&boardGender, "gender", "", "only this gender")
	cmd.Flags().IntVar(&boardAgeFrom, "age-from", 0, "minimum age")
	cmd.Flags().IntVar(&boardAgeTo, "age-to", 0, "maximum age")
	cmd.Flags().StringVar(&boardDifficulty, "difficulty", "", "only sessions of this difficulty")
	cmd.Flags().IntVar(&boardLimit, "limit", store.DefaultLeaderboardLimit, "number of entries")
	cmd.Flags().StringVar(&boardReplica, "replica", "", "leaderboard replica URL")
	cmd.Flags().BoolVar(&boardLocal, "local", false, "ignore the replica and rank local sessions only")
	return cmd
}

func leaderboardFilter(cmd *cobra.Command) (store.LeaderboardFilter, error) {
	f := store.LeaderboardFilter{
		Gender:     strings.TrimSpace(boardGender),
		Difficulty: strings.TrimSpace(boardDifficulty),
		Limit:      boardLimit,
	}
	if cmd.Flags().Changed("age-from") {
		v := boardAgeFrom
		f.AgeFrom = &v
	}
	if cmd.Flags().Changed("age-to") {
		v := boardAgeTo
		f.AgeTo = &v
	}
	if f.AgeFrom != nil && f.AgeTo != nil && *f.AgeFrom > *f.AgeTo {
		return f, fmt.Errorf("--age-from must not exceed --age-to")
	}
	return f, nil
}

func runLeaderboardCmd(cmd *cobra.Command, _ []string) error {
	f, err := leaderboardFilter(cmd)
	if err != nil {
		return err
	}
	fileCfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyConfig(cmd, "replica", &boardReplica, fileCfg.Replica.URL)
	if boardLocal {
		boardReplica = ""
	}

	st, closeStore, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer closeStore()

	entries, err := leaderboardSource(st, boardReplica).Leaderboard(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("failed to load leaderboard: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderLeaderboard(entries))
	return nil
}
