package cli

import (
	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/carpool/internal/report"
	"github.com/mmynk/carpool/pkg/api"
)

// NewBalancesCommand creates the balances command.
func NewBalancesCommand(opts *RootOptions) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show credit balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.carpool.GetBalances(cmd.Context(), connect.NewRequest(&api.GetBalancesRequest{
				GroupId: opts.Group,
				AsOf:    asOf,
			}))
			if err != nil {
				return err
			}
			return report.Balances(cmd.OutOrStdout(), resp.Msg)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "balance as of YYYY-MM-DD (default today)")

	return cmd
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	req := &api.GetHistoryRequest{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded days, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			req.GroupId = opts.Group
			resp, err := s.carpool.GetHistory(cmd.Context(), connect.NewRequest(req))
			if err != nil {
				return err
			}
			return report.History(cmd.OutOrStdout(), resp.Msg)
		},
	}

	cmd.Flags().StringVar(&req.Start, "start", "", "first day to show")
	cmd.Flags().StringVar(&req.End, "end", "", "last day to show")
	cmd.Flags().StringVar(&req.ParticipantId, "participant", "", "only days this participant appears on")
	cmd.Flags().StringVar(&req.Role, "role", "", "only days with this role (with --participant: held by them)")

	return cmd
}
