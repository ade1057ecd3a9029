package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	impacts "github.com/pacificclimate/p2a-rule-engine"
	"github.com/pacificclimate/p2a-rule-engine/expr"
	"github.com/pacificclimate/p2a-rule-engine/ruleset"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	var (
		csv    string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Compile the rules of a rule file without resolving them",
		Long: `Check compiles every rule and lists the compiled rules with the climate
variables they use, followed by the rules that were rejected and why.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			rules, err := ruleset.LoadFile(csv)
			if err != nil {
				return err
			}

			engine := impacts.NewEngine(expr.NewEvaluator(), impacts.WithLogger(logger))
			rs := engine.Compile(cmd.Context(), rules)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, rs.String())
			fmt.Fprintf(out, "%s rules compiled, %s rejected, %s distinct variables\n",
				humanize.Comma(int64(len(rs.Rules))),
				humanize.Comma(int64(len(rs.Rejected))),
				humanize.Comma(int64(len(rs.Variables))))

			if strict && len(rs.Rejected) > 0 {
				return fmt.Errorf("%d of %d rules rejected", len(rs.Rejected), rs.Attempted())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&csv, "csv", "c", "", "CSV file containing rules")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail if any rule is rejected")
	cobra.CheckErr(cmd.MarkFlagRequired("csv"))
	return cmd
}
