// Package cli implements closetctl, an operator tool over the persistence layer.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alizenart/closeted/internal/bootstrap"
	"github.com/alizenart/closeted/internal/config"
	"github.com/alizenart/closeted/internal/observability/logging"
)

type session struct {
	owner   string
	output  string
	verbose bool

	app *bootstrap.App
}

// open wires the persistence layer on first use so commands like score stay offline.
func (s *session) open(ctx context.Context) (*bootstrap.App, error) {
	if s.app != nil {
		return s.app, nil
	}
	cfg := config.Load()
	if s.owner != "" {
		cfg.StaticOwnerID = s.owner
	}
	app, err := bootstrap.New(ctx, cfg, "closetctl")
	if err != nil {
		return nil, fmt.Errorf("open closet: %w", err)
	}
	s.app = app
	return app, nil
}

func (s *session) close() {
	if s.app != nil {
		s.app.Close()
		s.app = nil
	}
}

func NewRootCmd() *cobra.Command {
	s := &session{}

	cmd := &cobra.Command{
		Use:   "closetctl",
		Short: "Inspect and populate a Closeted wardrobe store",
		Long: `closetctl talks to the same blob store, index and timer channel as the API.

Configuration comes from the environment (or a .env file). The owner defaults to
STATIC_OWNER_ID and can be overridden with --owner.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			level := "warn"
			if s.verbose {
				level = "debug"
			}
			slog.SetDefault(logging.NewTextLogger(cmd.ErrOrStderr(), level))

			switch strings.ToLower(s.output) {
			case outputText, outputJSON, outputYAML:
				s.output = strings.ToLower(s.output)
				return nil
			default:
				return fmt.Errorf("unsupported output %q (text, json or yaml)", s.output)
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			s.close()
		},
	}

	cmd.PersistentFlags().StringVar(&s.owner, "owner", "", "Owner id to act as (defaults to STATIC_OWNER_ID)")
	cmd.PersistentFlags().StringVarP(&s.output, "output", "o", outputText, "Output format: text, json or yaml")
	cmd.PersistentFlags().BoolVar(&s.verbose, "verbose", false, "Verbose logging on stderr")

	cmd.AddCommand(newUploadCmd(s))
	cmd.AddCommand(newListCmd(s))
	cmd.AddCommand(newSimilarCmd(s))
	cmd.AddCommand(newTimerCmd(s))
	cmd.AddCommand(newScoreCmd(s))

	return cmd
}
