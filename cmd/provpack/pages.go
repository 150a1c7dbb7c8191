package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ersonp/provpack/internal/infrastructure/pagestore"
)

func newPagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages <packet-id>",
		Short: "List the scanned pages of a packet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(deps *Deps) error {
				pages, err := deps.Packets.HandleListPages(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(pages) == 0 {
					fmt.Fprintln(out, "No pages found.")
					return nil
				}
				fmt.Fprintf(out, "%d pages: %s\n", len(pages), formatPages(pages))
				return nil
			})
		},
	}

	cmd.AddCommand(newPagesAddCmd())
	return cmd
}

func newPagesAddCmd() *cobra.Command {
	var start int

	cmd := &cobra.Command{
		Use:   "add <packet-id> <image>...",
		Short: "Add page images to a packet",
		Long:  "Copies image files into the local page store, numbered from --start in argument order.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			packetID, files := args[0], args[1:]
			return withFSPages(cmd.Context(), func(store *pagestore.FSStore) error {
				for i, file := range files {
					data, err := os.ReadFile(file)
					if err != nil {
						return fmt.Errorf("reading %s: %w", file, err)
					}
					ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), ".")
					page := start + i
					if err := store.PutPage(packetID, page, ext, data); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Added page %d from %s\n", page, file)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&start, "start", "s", 1, "Page number of the first image")
	return cmd
}

// parsePages parses a comma-separated page list such as "1,2,5".
func parsePages(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	seen := make(map[int]bool)
	var pages []int
	for _, part := range strings.Split(s, ",") {
		page, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || page < 1 {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		if !seen[page] {
			seen[page] = true
			pages = append(pages, page)
		}
	}
	sort.Ints(pages)
	return pages, nil
}

func formatPages(pages []int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
