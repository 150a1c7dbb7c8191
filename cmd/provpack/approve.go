package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <packet-id> <extraction.json>",
		Short: "Approve a reviewed extraction and store it as a case",
		Long: `Validates the extraction, normalizes it into a case and stores the case in one transaction.
Use - to read the extraction from stdin.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[1])
			if err != nil {
				return err
			}

			return withDeps(cmd.Context(), func(deps *Deps) error {
				x, err := deps.Validator.DecodeExtraction(raw)
				if err != nil {
					return err
				}

				res, err := deps.Reviews.HandleApprove(cmd.Context(), args[0], x)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Approved case %s\n", res.CaseID)
				fmt.Fprintf(out, "  %d persons, %d relationships, %d citations\n",
					len(res.Case.Persons), len(res.Case.Relationships), len(res.Case.Citations))
				return nil
			})
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
