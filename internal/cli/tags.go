package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewDiagnoseTagCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "diagnose-tag <tag-id>",
		Short:        "Explain whether a tag scans and why not",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(func(svc *Services) error {
				diag, err := svc.Tags.DiagnoseTag(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), diag)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "tag:      %s\n", diag.TagID)
				fmt.Fprintf(out, "verdict:  %s\n", diag.Verdict)
				if diag.Status != "" {
					fmt.Fprintf(out, "status:   %s\n", diag.Status)
					fmt.Fprintf(out, "business: %d\n", diag.BusinessID)
				}
				if diag.ReplacedByID != nil {
					fmt.Fprintf(out, "replaced by: %s\n", *diag.ReplacedByID)
				}
				if diag.DeactivatedAt != nil {
					fmt.Fprintf(out, "deactivated at: %s\n", diag.DeactivatedAt.UTC().Format("2006-01-02T15:04:05Z"))
				}
				return nil
			})
		},
	}
}

func NewDeactivateTagCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "deactivate-tag <tag-id>",
		Short:        "Retire a tag regardless of its owner",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(func(svc *Services) error {
				if err := svc.Tags.DeactivateTag(cmd.Context(), args[0], nil); err != nil {
					return err
				}
				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), map[string]string{"tag_id": args[0], "status": "inactive"})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "tag %s deactivated\n", args[0])
				return nil
			})
		},
	}
}
