package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ikkim/scanreview-backend/internal/app/service"
	"github.com/spf13/cobra"
)

// Services are the operations the admin commands drive.
type Services struct {
	Tags  service.TagService
	Stats service.StatsService
}

// Connector opens the backing services. The returned func releases them.
type Connector func() (*Services, func(), error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format  string // "json" | "text"
	connect Connector
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the scanctl command tree.
func NewRootCommand(connect Connector) *cobra.Command {
	opts := &RootOptions{connect: connect}

	cmd := &cobra.Command{
		Use:   "scanctl",
		Short: "Administer scan tags and review aggregates",
		// main prints the error once
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range ValidFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewDiagnoseTagCommand(opts))
	cmd.AddCommand(NewDeactivateTagCommand(opts))
	cmd.AddCommand(NewRecomputeStatsCommand(opts))

	return cmd
}

// withServices runs fn against freshly connected services.
func (o *RootOptions) withServices(fn func(*Services) error) error {
	svc, release, err := o.connect()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer release()
	return fn(svc)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
