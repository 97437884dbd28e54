package cli

import (
	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/carpool/internal/report"
	"github.com/mmynk/carpool/pkg/api"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [participant-id]",
		Short: "Summarize stored history, or one member's role counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 1 {
				resp, err := s.carpool.GetMemberStats(cmd.Context(), connect.NewRequest(&api.GetMemberStatsRequest{
					GroupId:       opts.Group,
					ParticipantId: args[0],
				}))
				if err != nil {
					return err
				}
				return report.MemberStats(cmd.OutOrStdout(), resp.Msg)
			}

			groupID, err := opts.localGroup(s, cmd)
			if err != nil {
				return err
			}
			rows, err := s.store.ListRoleEntries(cmd.Context(), groupID)
			if err != nil {
				return err
			}
			return report.WriteStats(cmd.OutOrStdout(), report.Summarize(rows))
		},
	}
}
