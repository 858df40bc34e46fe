package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/me/herd/internal/command"
	"github.com/me/herd/internal/config"
	"github.com/me/herd/internal/logging"
	"github.com/me/herd/internal/ops"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger   *slog.Logger
	client   *Client
	registry *command.Registry
)

// NewRootCmd creates the root cobra command for the herd CLI.
func NewRootCmd() *cobra.Command {
	defaults := config.DefaultClientConfig()

	root := &cobra.Command{
		Use:   "herd",
		Short: "herd — MySQL fleet manager",
		Long:  "herd manages groups, servers and shards of a MySQL fleet through the herd server.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
			client = NewClient(flagServer, logger)
			registry = command.NewRegistry(logger)
			ops.Bootstrap(registry)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaults.ServerURL, "herd server URL (or HERD_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", defaults.LogFormat, "Log format (text, json)")

	root.AddCommand(
		newGroupCmd(),
		newShardingCmd(),
		newProcCmd(),
		newCommandsCmd(),
		newPingCmd(),
	)

	return root
}
