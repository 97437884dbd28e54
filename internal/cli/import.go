package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/carpool/internal/importer"
)

// NewImportCommand creates the import command.
func NewImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import members and role history from YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			s, err := opts.open()
			if err != nil {
				return err
			}
			defer s.Close()

			groupID, err := opts.localGroup(s, cmd)
			if err != nil {
				return err
			}
			res, err := importer.Import(cmd.Context(), s.store, groupID, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d member(s), %d entries over %d day(s)\n", res.Members, res.Entries, res.Days)
			return nil
		},
	}
}
