// Package main provides the CLI entrypoint for neurosprint.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/neurosprint/internal/config"
	"github.com/ayusman/neurosprint/internal/sink"
	"github.com/ayusman/neurosprint/internal/store"
)

var (
	configPath string
	dbPath     string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "neurosprint",
		Short:         "Rock-paper-scissors reaction trainer driven by hand gestures",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "SQLite database")

	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(newTrayCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func loadConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(configPath)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

func openStore(path string) (*store.Store, func(), error) {
	st, err := store.New(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}, nil
}

// resolveUser returns the named user, or the active one when name is
// empty. A nil user without error means nobody is logged in.
func resolveUser(ctx context.Context, st *store.Store, name string) (*store.User, error) {
	if name != "" {
		u, err := st.Users().GetByUsername(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user %q does not exist (create it with: neurosprint user create %s)", name, name)
		}
		return u, err
	}
	u, err := st.Users().Active(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

// leaderboardSource prefers the replica when one is configured.
func leaderboardSource(st *store.Store, replicaURL string) sink.LeaderboardSource {
	if replicaURL == "" {
		return sink.NewLocalSink(st)
	}
	return sink.NewReplicatingSink(st, sink.NewClient(replicaURL))
}

func applyConfig[T any](cmd *cobra.Command, name string, target, value *T) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
