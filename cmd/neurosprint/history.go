package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/neurosprint/internal/tui"
)

var (
	historyUser   string
	historyLimit  int
	historyTrials bool
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past sessions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyUser, "user", "", "user to show (default: active user)")
	cmd.Flags().IntVar(&historyLimit, "limit", 20, "number of sessions to show")
	cmd.Flags().BoolVar(&historyTrials, "trials", false, "also list the trials of the latest session")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be > 0")
	}
	st, closeStore, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := cmd.Context()
	user, err := resolveUser(ctx, st, historyUser)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("no user logged in (use --user or `neurosprint user login <name>`)")
	}

	sessions, err := st.Sessions().ListByUser(ctx, user.ID, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sessions of %s\n\n%s\n", user.Username, tui.RenderHistory(sessions))
	if historyTrials && len(sessions) > 0 {
		fmt.Fprintf(out, "\nLatest session\n\n%s\n", tui.RenderTrials(sessions[0].Trials))
	}
	return nil
}
