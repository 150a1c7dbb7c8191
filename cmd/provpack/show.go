package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ersonp/provpack/internal/application/handlers"
	"github.com/ersonp/provpack/internal/domain/entities"
)

func newShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show a stored case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(deps *Deps) error {
				detail, err := deps.Cases.HandleShow(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), detail.Case.Canonical())
				}
				displayCase(cmd.OutOrStdout(), detail)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the canonical case JSON")
	return cmd
}

func displayCase(w io.Writer, detail *handlers.CaseDetail) {
	c := detail.Case
	fmt.Fprintf(w, "Case:   %s\n", c.CaseID)
	fmt.Fprintf(w, "Packet: %s\n", c.PacketID)

	if d := c.Deceased(); d != nil {
		fmt.Fprintf(w, "\nDeceased: %s%s\n", d.PrimaryName, formatVital(" died ", d.Death))
		if children := c.ChildrenOf(d.ID); len(children) > 0 {
			fmt.Fprintf(w, "\nChildren (%d):\n", len(children))
			for _, child := range children {
				fmt.Fprintf(w, "  - %s%s\n", child.PrimaryName, formatVital(" born ", child.Birth))
			}
		}
		for _, s := range c.SpousesOf(d.ID) {
			fmt.Fprintf(w, "\nSpouse: %s\n", s.PrimaryName)
		}
	}

	fmt.Fprintf(w, "\n%d persons, %d relationships, %d sources, %d citations\n",
		len(c.Persons), len(c.Relationships), len(c.Sources), len(c.Citations))

	if len(detail.Audit) > 0 {
		fmt.Fprintln(w, "\nHistory:")
		for _, e := range detail.Audit {
			fmt.Fprintf(w, "  %s  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Action)
		}
	}
}

func formatVital(prefix string, v *entities.Vital) string {
	if v == nil || (v.Date == "" && v.Place == "") {
		return ""
	}
	s := prefix + v.Date
	if v.Place != "" {
		if v.Date != "" {
			s += ","
		}
		s += " " + v.Place
	}
	return s
}
