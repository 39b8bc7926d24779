package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/userpanel/pkg/config"
	"github.com/Skotchmaster/userpanel/pkg/logging"
)

// env is loaded once before any subcommand runs.
type env struct {
	cfg config.Config
	log *slog.Logger
}

func (e *env) context(parent context.Context) context.Context {
	return logging.IntoContext(parent, e.log.With("service", e.cfg.ServiceName))
}

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	return newRootCmd(version, commit, date).Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	e := &env{}
	var logLevel string

	cmd := &cobra.Command{
		Use:   "userpanel",
		Short: "Server-rendered user management panel",
		Long: `userpanel serves HTML pages to look users up, change passwords and, for
admins, add and remove accounts. Sessions are signed tokens kept in a cookie.

Configuration comes from the environment, optionally seeded from a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			e.cfg = config.Load()
			if logLevel != "" {
				e.cfg.LogLevel = logLevel
			}
			e.log = logging.New(e.cfg.LogLevel)
			slog.SetDefault(e.log)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")

	cmd.AddCommand(newServeCmd(e))
	cmd.AddCommand(newMigrateCmd(e))
	cmd.AddCommand(newAdminCmd(e))
	cmd.AddCommand(newVersionCmd(version, commit, date))

	return cmd
}
