package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ayusman/neurosprint/internal/config"
)

var configPrint bool

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
	cmd.Flags().BoolVar(&configPrint, "print", false, "print the default template instead of opening an editor")
	return cmd
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	if configPrint {
		fmt.Fprint(cmd.OutOrStdout(), config.Template())
		return nil
	}

	if err := ensureConfigFile(configPath); err != nil {
		return err
	}

	editor := strings.Fields(strings.TrimSpace(os.Getenv("EDITOR")))
	if len(editor) == 0 {
		editor = []string{"vi"}
	}
	edit := exec.Command(editor[0], append(editor[1:], configPath)...)
	edit.Stdin = os.Stdin
	edit.Stdout = os.Stdout
	edit.Stderr = os.Stderr
	if err := edit.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}

	// catch mistakes before the next training run does
	if _, err := config.LoadConfig(configPath); err != nil {
		logErrf("Warning: %s is invalid: %v\n", configPath, err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.Template()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
