package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/neurosprint/internal/sink"
)

var syncReplica string

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Push sessions the replica has not received yet",
		Args:  cobra.NoArgs,
		RunE:  runSyncCmd,
	}
	cmd.Flags().StringVar(&syncReplica, "replica", "", "leaderboard replica URL")
	return cmd
}

func runSyncCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyConfig(cmd, "replica", &syncReplica, fileCfg.Replica.URL)
	if syncReplica == "" {
		return fmt.Errorf("no replica configured (set [replica] url or pass --replica)")
	}

	st, closeStore, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer closeStore()

	rs := sink.NewReplicatingSink(st, sink.NewClient(syncReplica))
	n, err := rs.SyncPending(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to sync: %w", err)
	}
	if !rs.Online() {
		return fmt.Errorf("replica %s is unreachable (%d sessions synced)", syncReplica, n)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Synced %d sessions to %s\n", n, syncReplica)
	return nil
}
