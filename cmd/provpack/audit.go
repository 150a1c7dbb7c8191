package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/provpack/internal/domain/entities"
)

func newAuditCmd() *cobra.Command {
	var action string
	var limit int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recent approvals or exports",
		Long: fmt.Sprintf(`Lists the most recent audit log entries of one action across all cases.
Actions: %s, %s.`, entities.ActionCaseApproved, entities.ActionCaseExported),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(deps *Deps) error {
				entries, err := deps.Cases.HandleActivity(cmd.Context(), action, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintf(out, "No %s entries found.\n", action)
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "WHEN\tACTION\tCASE ID")
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", e.CreatedAt.UTC().Format(time.RFC3339), e.Action, e.CaseID)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&action, "action", "a", entities.ActionCaseApproved, "Audit action to list")
	cmd.Flags().IntVarP(&limit, "limit", "l", DefaultListLimit, "Maximum number of entries to display")

	return cmd
}
