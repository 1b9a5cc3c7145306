package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BiradarScripts/Djaan/internal/config"
	"github.com/BiradarScripts/Djaan/pkg/utils"
)

var version = "dev"

const defaultConfigFile = "config.yaml"

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "djaan",
		Short: "Incremental semantic search over a directory of text documents",
		Long: `djaan keeps a vector index of a document directory in sync with its
contents and answers similarity queries over it, either from the command
line or through an HTTP API.

Only files whose cleaned content changed are re-embedded on refresh.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("djaan version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigFile, "config file path (defaults apply when it does not exist)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newRefreshCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the djaan version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "djaan version %s\n", version)
		},
	}
}

// setup loads the config and builds a logger. Logs go to stderr so that command output
// on stdout stays parseable.
func (o *globalOptions) setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadOrDefault(o.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || o.debug
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if _, statErr := os.Stat(o.configPath); statErr == nil {
		logger.Debug("config loaded", zap.String("config_path", o.configPath), zap.Bool("debug", debug))
	} else {
		logger.Debug("config file not found, using defaults", zap.String("config_path", o.configPath))
	}
	return cfg, logger, nil
}
