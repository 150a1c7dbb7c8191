package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		output    string
		pagesFlag string
	)

	cmd := &cobra.Command{
		Use:   "export <case-id>",
		Short: "Build the provenance archive of a case",
		Long: `Writes a zip archive holding the canonical case JSON, the page images, a summary
document and a manifest with a SHA-256 digest of every entry. Pages that cannot
be read are replaced by placeholders and listed as degraded in the manifest.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pages, err := parsePages(pagesFlag)
			if err != nil {
				return err
			}

			return withDeps(cmd.Context(), func(deps *Deps) error {
				archive, err := deps.Exports.HandleExport(cmd.Context(), args[0], pages)
				if err != nil {
					return err
				}

				path := output
				if path == "" {
					path = archive.Filename
				} else if isDir(path) {
					path = filepath.Join(path, archive.Filename)
				}
				if err := writeFile(path, archive.Data); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Wrote %s (%d entries, %d bytes)\n", path, len(archive.Manifest.Files), len(archive.Data))
				for _, d := range archive.Manifest.Degraded {
					fmt.Fprintf(out, "  degraded %s: %s\n", d.Path, d.Reason)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file or directory (default: archive name in current directory)")
	cmd.Flags().StringVarP(&pagesFlag, "pages", "p", "", "Comma-separated extra pages to include beyond the cited ones")

	return cmd
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
