package cli

import (
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"

	"github.com/mmynk/carpool/internal/report"
	"github.com/mmynk/carpool/pkg/api"
)

// NewDayCommand creates the day command and its subcommands.
func NewDayCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Record daily roles",
	}

	var recordedBy string
	set := &cobra.Command{
		Use:   "set <YYYY-MM-DD> <id=role>...",
		Short: "Record roles for a day",
		Long: `Record roles for a day. Roles are D/Driver, R/Rider or O/Off.

Example:
  carpool day set 2024-01-10 CA=D DM=R EX=Off --by CA`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roles, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}

			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.carpool.SaveDay(cmd.Context(), connect.NewRequest(&api.SaveDayRequest{
				GroupId:    opts.Group,
				Day:        args[0],
				Roles:      roles,
				RecordedBy: recordedBy,
			}))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if resp.Msg.Written == 0 {
				fmt.Fprintln(out, "No changes")
			} else {
				fmt.Fprintf(out, "Saved %d role(s)\n", resp.Msg.Written)
			}
			return report.Suggestion(out, args[0], resp.Msg.Suggestion)
		},
	}
	set.Flags().StringVar(&recordedBy, "by", "", "who is recording the roles")
	cmd.AddCommand(set)

	return cmd
}

// parseAssignments turns id=role arguments into a roles map.
func parseAssignments(args []string) (map[string]string, error) {
	roles := make(map[string]string, len(args))
	for _, arg := range args {
		id, role, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(id) == "" || strings.TrimSpace(role) == "" {
			return nil, fmt.Errorf("invalid assignment %q (want id=role)", arg)
		}
		roles[strings.TrimSpace(id)] = strings.TrimSpace(role)
	}
	return roles, nil
}

// NewSuggestCommand creates the suggest command.
func NewSuggestCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest [YYYY-MM-DD]",
		Short: "Show who should drive on a day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			req := &api.GetDayRequest{GroupId: opts.Group}
			if len(args) == 1 {
				req.Day = args[0]
			}
			resp, err := s.carpool.GetDay(cmd.Context(), connect.NewRequest(req))
			if err != nil {
				return err
			}
			return report.Suggestion(cmd.OutOrStdout(), resp.Msg.Day, resp.Msg.Suggestion)
		},
	}
}
