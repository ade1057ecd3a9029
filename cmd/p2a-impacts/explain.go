package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pacificclimate/p2a-rule-engine/ruleset"
)

func newExplainCmd(root *rootOptions) *cobra.Command {
	var (
		opts runOptions
		id   string
	)
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show how one rule is evaluated",
		Long: `Explain resolves the rules of a rule file, collecting diagnostics, and
prints the evaluation report of one rule: the value of every sub-expression
and the variables it was evaluated against.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if _, ok := rules[id]; !ok {
				return fmt.Errorf("%s is not defined in %s", id, opts.csv)
			}

			ctx := cmd.Context()
			src, err := openSource(ctx, cfg, opts.values, logger)
			if err != nil {
				return err
			}
			defer src.close()

			engine, stop := newEngine(cfg, logger, true)
			defer stop()

			rs := engine.Compile(ctx, rules)
			if err, rejected := rs.Rejected[id]; rejected {
				return err
			}
			env, err := engine.Collect(ctx, rs, src.resolver, src.rc)
			if err != nil {
				return err
			}
			res := engine.Evaluate(ctx, rs, env)

			r, _ := rs.Rule(id)
			out := cmd.OutOrStdout()
			if d := res.Diagnostics[id]; d != nil {
				fmt.Fprintln(out, d.AsString(r, env.Variables()))
			}
			if err, skipped := res.Skipped[id]; skipped {
				fmt.Fprintf(out, "%s was not resolved: %v\n", id, err)
				return nil
			}
			fmt.Fprintf(out, "%s = %s\n", id, res.Values[id])
			return nil
		},
	}
	opts.addFlags(cmd)
	cmd.Flags().StringVar(&id, "rule", "", "id of the rule to explain, e.g. rule_1a")
	cobra.CheckErr(cmd.MarkFlagRequired("rule"))
	return cmd
}
