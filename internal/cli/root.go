// Package cli implements the carpool command line.
package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmynk/carpool/internal/config"
	"github.com/mmynk/carpool/internal/service"
	"github.com/mmynk/carpool/internal/storage"
	"github.com/mmynk/carpool/internal/storage/sqlite"
	"github.com/mmynk/carpool/pkg/api/apiconnect"
	"github.com/mmynk/carpool/pkg/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBPath   string
	Server   string
	Group    string
	LogLevel string

	cfg *config.Config
}

// NewRootCommand creates the root command for the carpool CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "carpool",
		Short:         "Carpool credit tracking and driver suggestions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.DBPath != "" {
				cfg.DBPath = opts.DBPath
			}
			if opts.LogLevel != "" {
				cfg.LogLevel = opts.LogLevel
			}
			logging.Setup(cfg.LogLevel)
			opts.cfg = cfg
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path (overrides DB_PATH)")
	cmd.PersistentFlags().StringVar(&opts.Server, "server", "", "talk to a running server at this URL instead of the database")
	cmd.PersistentFlags().StringVarP(&opts.Group, "group", "g", "", "group id (ignored in legacy mode)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewGroupCommand(opts))
	cmd.AddCommand(NewMemberCommand(opts))
	cmd.AddCommand(NewDayCommand(opts))
	cmd.AddCommand(NewSuggestCommand(opts))
	cmd.AddCommand(NewBalancesCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))

	return cmd
}

// session gives commands the two services, either in-process over the
// local database or through a remote server.
type session struct {
	carpool apiconnect.CarpoolServiceClient
	groups  apiconnect.GroupServiceClient

	// store is nil for remote sessions.
	store storage.Store
}

var errNeedsDatabase = errors.New("this command needs the local database; drop --server")

func (o *RootOptions) open() (*session, error) {
	if o.Server != "" {
		url := strings.TrimRight(o.Server, "/")
		return &session{
			carpool: apiconnect.NewCarpoolServiceClient(http.DefaultClient, url),
			groups:  apiconnect.NewGroupServiceClient(http.DefaultClient, url),
		}, nil
	}

	store, err := sqlite.New(o.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	svcOpts := service.Options{Mode: o.cfg.Mode, Policy: o.cfg.Policy}
	return &session{
		carpool: service.NewCarpoolService(store, svcOpts),
		groups:  service.NewGroupService(store, svcOpts),
		store:   store,
	}, nil
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// localGroup resolves the group for commands that work on the store directly.
func (o *RootOptions) localGroup(s *session, cmd *cobra.Command) (string, error) {
	if s.store == nil {
		return "", errNeedsDatabase
	}
	if o.cfg.Mode == config.ModeLegacy {
		return "", nil
	}
	if o.Group == "" {
		return "", errors.New("--group is required")
	}
	if _, err := s.store.GetGroup(cmd.Context(), o.Group); err != nil {
		return "", err
	}
	return o.Group, nil
}
