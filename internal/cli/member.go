package cli

import (
	"fmt"
	"text/tabwriter"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/carpool/pkg/api"
)

// NewMemberCommand creates the member command and its subcommands.
func NewMemberCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage group members",
	}

	var name string
	var inactive bool
	set := &cobra.Command{
		Use:   "set <participant-id>",
		Short: "Add or update a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.groups.SetMember(cmd.Context(), connect.NewRequest(&api.SetMemberRequest{
				GroupId: opts.Group,
				Member: &api.Member{
					ParticipantId: args[0],
					DisplayName:   name,
					Active:        !inactive,
				},
			}))
			if err != nil {
				return err
			}
			m := resp.Msg.Member
			fmt.Fprintf(cmd.OutOrStdout(), "Saved member %s (%s), active=%t\n", m.DisplayName, m.ParticipantId, m.Active)
			return nil
		},
	}
	set.Flags().StringVar(&name, "name", "", "display name (defaults to the id)")
	set.Flags().BoolVar(&inactive, "inactive", false, "mark the member inactive")
	cmd.AddCommand(set)

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List members in rotation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.groups.ListMembers(cmd.Context(), connect.NewRequest(&api.ListMembersRequest{
				GroupId:         opts.Group,
				IncludeInactive: all,
			}))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tACTIVE")
			for _, m := range resp.Msg.Members {
				fmt.Fprintf(tw, "%s\t%s\t%t\n", m.ParticipantId, m.DisplayName, m.Active)
			}
			return tw.Flush()
		},
	}
	list.Flags().BoolVar(&all, "all", false, "include inactive members")
	cmd.AddCommand(list)

	return cmd
}
