package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ersonp/provpack/internal/infrastructure/config"
	"github.com/ersonp/provpack/internal/infrastructure/relationaldb/sqlite"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new provpack project",
		Long:  "Creates a .provpack directory with default configuration, a page directory and the case database.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	basePath, err := projectDir()
	if err != nil {
		return err
	}

	if config.Exists(basePath) {
		return fmt.Errorf("provpack already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	fmt.Fprintf(out, "Created %s\n", config.ConfigFilePath(basePath))

	cfg, err := config.Load(basePath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewRepository(config.SQLiteConfig{Path: cfg.DatabasePath(basePath)})
	if err != nil {
		return fmt.Errorf("creating sqlite repository: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("creating case database: %w", err)
	}

	fmt.Fprintf(out, "Created case database: %s\n", store.Path())
	fmt.Fprintln(out, "provpack initialized successfully!")

	return nil
}
