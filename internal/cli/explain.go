package cli

import (
	"github.com/hupe1980/vecand/exec"
	"github.com/spf13/cobra"
)

// ExplainFlag selects optional EXPLAIN output.
type ExplainFlag int

const (
	// ExplainTiming adds per-node wall time.
	ExplainTiming ExplainFlag = iota + 1
)

func explainOptions(flags []ExplainFlag) []exec.ExplainOption {
	var out []exec.ExplainOption
	for _, f := range flags {
		if f == ExplainTiming {
			out = append(out, exec.WithTiming())
		}
	}
	return out
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	var timing bool

	cmd := &cobra.Command{
		Use:   "explain <query.yaml>",
		Short: "Run a query and print the executed plan with per-node statistics",
		Long: `Run the plan of a query file for every binding, then print the plan tree
in its final execution order with loops, rows, rescans and combinator
statistics for each node.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}

			var flags []ExplainFlag
			if timing {
				flags = append(flags, ExplainTiming)
			}
			results, plan, err := execute(cmd.Context(), rootOpts, args[0], true, flags...)
			if err != nil {
				_ = f.Error(err)
				return err
			}

			if rootOpts.Format == "json" {
				return f.Success(struct {
					Runs []RunResult `json:"runs"`
					Plan string      `json:"plan"`
				}{results, plan})
			}
			return f.Success(plan)
		},
	}

	cmd.Flags().BoolVar(&timing, "timing", false, "include per-node wall time")

	return cmd
}
