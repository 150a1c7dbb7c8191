package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newCasesCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List approved cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(deps *Deps) error {
				cases, err := deps.Cases.HandleList(cmd.Context(), limit, offset)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(cases) == 0 {
					fmt.Fprintln(out, "No cases found.")
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "CASE ID\tPACKET\tDECEASED\tPERSONS")
				for _, c := range cases {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", c.CaseID, c.PacketID, c.DeceasedName, c.PersonCount)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of cases to display")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of cases to skip")

	return cmd
}
