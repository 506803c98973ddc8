package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRecomputeStatsCommand(opts *RootOptions) *cobra.Command {
	var businessID uint

	cmd := &cobra.Command{
		Use:   "recompute-stats",
		Short: "Recompute review aggregates",
		Long: `Recompute average rating and review count from live reviews.

With --business-id only that business is recomputed; otherwise every
business is reconciled.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(func(svc *Services) error {
				if businessID != 0 {
					if err := svc.Stats.RecomputeBusinessStats(cmd.Context(), businessID); err != nil {
						return err
					}
					if opts.Format == "json" {
						return writeJSON(cmd.OutOrStdout(), map[string]uint{"recomputed": 1, "business_id": businessID})
					}
					fmt.Fprintf(cmd.OutOrStdout(), "business %d recomputed\n", businessID)
					return nil
				}

				n, err := svc.Stats.ReconcileAllStats(cmd.Context())
				if opts.Format == "json" {
					if werr := writeJSON(cmd.OutOrStdout(), map[string]int{"recomputed": n}); werr != nil {
						return werr
					}
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%d businesses recomputed\n", n)
				}
				return err
			})
		},
	}

	cmd.Flags().UintVar(&businessID, "business-id", 0, "recompute a single business")
	return cmd
}
