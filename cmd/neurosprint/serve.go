package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/neurosprint/internal/server"
)

var serveAddr string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the leaderboard replica server",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	path := dbPath
	if fileCfg.Server.DB != nil && !cmd.Flags().Changed("db") {
		path = *fileCfg.Server.DB
	}

	st, closeStore, err := openStore(path)
	if err != nil {
		return err
	}
	defer closeStore()

	srv := server.New(server.Config{Store: st})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Leaderboard server listening on %s (db %s)", serveAddr, path)
	if err := srv.Run(ctx, serveAddr); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Println("Server stopped")
	return nil
}
