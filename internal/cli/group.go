package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/carpool/pkg/api"
)

// NewGroupCommand creates the group command and its subcommands.
func NewGroupCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage carpool groups",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.groups.CreateGroup(cmd.Context(), connect.NewRequest(&api.CreateGroupRequest{
				Name: strings.Join(args, " "),
			}))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created group %s (%s)\n", resp.Msg.Group.Name, resp.Msg.Group.Id)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.groups.ListGroups(cmd.Context(), connect.NewRequest(&api.ListGroupsRequest{}))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, g := range resp.Msg.Groups {
				fmt.Fprintf(tw, "%s\t%s\n", g.Id, g.Name)
			}
			return tw.Flush()
		},
	})

	return cmd
}
