package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/provpack"
	"github.com/ersonp/provpack/internal/domain/validation"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <archive.zip>",
		Short: "Check an archive against its manifest",
		Long: `Re-hashes every archive entry against manifest.json, then validates the
archived case against the case schema and its referential closure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			manifest, caseJSON, err := provpack.VerifyCase(data)
			if err != nil {
				return err
			}
			if err := verifyArchivedCase(caseJSON); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "OK %s\n", args[0])
			fmt.Fprintf(out, "  case %s, packet %s, created %s\n", manifest.CaseID, manifest.PacketID, manifest.CreatedAt)
			fmt.Fprintf(out, "  %d entries verified, %d degraded\n", len(manifest.Files)-len(manifest.Degraded), len(manifest.Degraded))
			for _, d := range manifest.Degraded {
				fmt.Fprintf(out, "  degraded %s: %s\n", d.Path, d.Reason)
			}
			return nil
		},
	}
}

func verifyArchivedCase(raw []byte) error {
	var c entities.Case
	if err := json.Unmarshal(raw, &c); err != nil {
		return fmt.Errorf("decoding %s: %w", provpack.CasePath, err)
	}

	v, err := validation.New()
	if err != nil {
		return fmt.Errorf("compiling schemas: %w", err)
	}
	if err := v.ValidateCase(&c); err != nil {
		return err
	}
	return c.CheckReferences()
}
