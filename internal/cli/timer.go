package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/alizenart/closeted/internal/core/domain"
)

func newTimerCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Manage the wishlist decision timer",
	}
	cmd.AddCommand(
		newTimerActionCmd(s, "start", "Start the 48h decision timer for a wishlist item", true),
		newTimerActionCmd(s, "status", "Show the decision timer for a wishlist item", false),
	)
	return cmd
}

func newTimerActionCmd(s *session, use, short string, start bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <wishlist-item-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := s.open(cmd.Context())
			if err != nil {
				return err
			}

			var status domain.TimerStatus
			if start {
				status, err = app.Timers.Start(cmd.Context(), args[0])
			} else {
				status, err = app.Timers.Status(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), s.output, status, func(w io.Writer) {
				if status.Expired {
					fmt.Fprintf(w, "%s  decision due since %s\n", idColor(status.ItemID), status.EndsAt.Format(time.RFC3339))
					return
				}
				remaining := time.Duration(status.RemainingMS) * time.Millisecond
				fmt.Fprintf(w, "%s  %s left, ends %s\n",
					idColor(status.ItemID), remaining.Round(time.Minute), status.EndsAt.Format(time.RFC3339))
			})
		},
	}
}
