package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newExtractCmd() *cobra.Command {
	var (
		pagesFlag string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "extract <packet-id>",
		Short: "Extract J294 fields from a packet's pages",
		Long: `Runs the configured extractor over the packet's pages and validates the result.
The extraction is written as JSON for review; approve it with 'provpack approve'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := parsePages(pagesFlag)
			if err != nil {
				return err
			}

			return withDeps(cmd.Context(), func(deps *Deps) error {
				res, err := deps.Packets.HandleExtract(cmd.Context(), args[0], pages)
				if err != nil {
					return err
				}

				data, err := json.MarshalIndent(res.Extraction, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding extraction: %w", err)
				}
				data = append(data, '\n')

				if output == "" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := writeFile(output, data); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Extracted %d children and %d citations from pages %s to %s\n",
					len(res.Extraction.Children), len(res.Extraction.Citations), formatPages(res.Pages), output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&pagesFlag, "pages", "p", "", "Comma-separated pages to read (default: all)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}
