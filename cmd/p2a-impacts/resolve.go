package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pacificclimate/p2a-rule-engine/ruleset"
)

func newResolveCmd(root *rootOptions) *cobra.Command {
	var (
		opts   runOptions
		format string
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve every rule of a rule file",
		Long: `Resolve compiles the rules of a CSV file, collects the climate variables
they use and evaluates them. Rules that cannot be resolved are logged and
left out of the output.

The output is a JSON object of rule id to value, or a table with --format table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "table" {
				return fmt.Errorf("unknown format %q", format)
			}
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}

			rules, err := ruleset.LoadFile(opts.csv)
			if err != nil {
				return err
			}
			logger.Info("rules read", "file", opts.csv, "count", len(rules))

			ctx := cmd.Context()
			src, err := openSource(ctx, cfg, opts.values, logger)
			if err != nil {
				return err
			}
			defer src.close()

			engine, stop := newEngine(cfg, logger, false)
			defer stop()

			res, err := engine.Resolve(ctx, rules, src.resolver, src.rc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "table" {
				_, err = fmt.Fprintln(out, res.String())
				return err
			}
			return json.NewEncoder(out).Encode(res.Native())
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json or table)")
	return cmd
}
