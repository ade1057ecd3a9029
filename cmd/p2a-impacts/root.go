package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pacificclimate/p2a-rule-engine/config"
	"github.com/pacificclimate/p2a-rule-engine/internal/logging"
)

type rootOptions struct {
	configFile string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions
	cmd := &cobra.Command{
		Use:   "p2a-impacts",
		Short: "Resolve climate impact rules for a region",
		Long: `p2a-impacts evaluates rules over projected climate variables, such as
"temp_djf_iamean_s0p_hist <= -6 && rule_1a", for a region and a 30 year
period, and reports the value of every rule that could be resolved.

Settings are read from an optional YAML file (--config) and P2A_ environment
variables; command line flags take precedence over both.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path")
	cmd.PersistentFlags().StringVarP(&opts.logLevel, "log-level", "l", "", "logging level (DEBUG, INFO, WARNING, ERROR, CRITICAL)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "logging format (text or json)")

	cmd.AddCommand(
		newResolveCmd(&opts),
		newCheckCmd(&opts),
		newExplainCmd(&opts),
		newVersionCmd(),
	)
	return cmd
}

// load returns the configuration, with the logging flags applied, and a
// logger writing to the command's error stream.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(o.configFile)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
