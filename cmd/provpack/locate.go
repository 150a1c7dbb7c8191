package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/provpack/internal/application/handlers"
	"github.com/ersonp/provpack/internal/domain/services"
	"github.com/ersonp/provpack/internal/infrastructure/parsers"
)

type locateFlags struct {
	year   int
	from   string
	format string
	asJSON bool
}

func newLocateCmd() *cobra.Command {
	var flags locateFlags

	cmd := &cobra.Command{
		Use:   "locate [reference]",
		Short: "Resolve a catalogue reference to a packet id",
		Long: `Maps a Master of the High Court reference such as 2322/60 to its packet id and suggested pages.
With --from, every reference in a CSV (columns mhg, year) or JSON list is resolved.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocate(cmd, args, flags)
		},
	}

	cmd.Flags().IntVarP(&flags.year, "year", "y", 0, "Year the estate was filed (default from config)")
	cmd.Flags().StringVar(&flags.from, "from", "", "Resolve every reference in a CSV or JSON list")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "List format (json, csv; default from file extension)")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Print locations as JSON")

	return cmd
}

func runLocate(cmd *cobra.Command, args []string, flags locateFlags) error {
	if flags.from == "" && len(args) == 0 {
		return errors.New("a reference or --from is required")
	}
	if flags.from != "" && len(args) > 0 {
		return errors.New("give either a reference or --from, not both")
	}

	var refs []parsers.RawReference
	if flags.from != "" {
		var err error
		refs, err = readReferences(flags.from, flags.format)
		if err != nil {
			return err
		}
	} else {
		refs = []parsers.RawReference{{Reference: args[0], Year: flags.year}}
	}

	return withDeps(cmd.Context(), func(deps *Deps) error {
		locs, err := locateAll(deps.Packets, refs)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case flags.asJSON && flags.from == "":
			return writeJSON(out, locs[0])
		case flags.asJSON:
			return writeJSON(out, locs)
		case flags.from == "":
			fmt.Fprintf(out, "Packet:          %s\n", locs[0].PacketID)
			fmt.Fprintf(out, "Suggested pages: %s\n", formatPages(locs[0].SuggestedPages))
			return nil
		default:
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "REFERENCE\tPACKET")
			for i, ref := range refs {
				fmt.Fprintf(tw, "%s\t%s\n", ref.Reference, locs[i].PacketID)
			}
			return tw.Flush()
		}
	})
}

func readReferences(path, format string) ([]parsers.RawReference, error) {
	if format == "" {
		format = parsers.FormatFromPath(path)
	}
	parser := parsers.ForFormat(format)
	if parser == nil {
		return nil, fmt.Errorf("unsupported list format %q, valid formats: json, csv", format)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	refs, err := parser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("no references found in %s", path)
	}
	return refs, nil
}

func locateAll(h *handlers.PacketHandler, refs []parsers.RawReference) ([]services.Location, error) {
	locs := make([]services.Location, 0, len(refs))
	for _, ref := range refs {
		loc, err := h.HandleLocate(ref.Reference, ref.Year)
		if err != nil {
			if ref.LineNum > 0 {
				return nil, fmt.Errorf("line %d: %w", ref.LineNum, err)
			}
			return nil, err
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
