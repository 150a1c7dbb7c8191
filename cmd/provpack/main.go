// Package main provides the entry point for the provpack CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version   = "0.1.0-dev"
	globalDir string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "provpack",
		Short:         "Turn estate file scans into verified genealogy cases and provenance archives",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&globalDir, "dir", "C", "", "Project directory (default: current directory)")

	rootCmd.AddCommand(
		newInitCmd(),
		newLocateCmd(),
		newPagesCmd(),
		newExtractCmd(),
		newApproveCmd(),
		newCasesCmd(),
		newShowCmd(),
		newAuditCmd(),
		newExportCmd(),
		newVerifyCmd(),
		newServeCmd(),
	)

	return rootCmd
}
