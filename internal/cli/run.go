package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/vecand"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <query.yaml>",
		Short: "Run a query once per binding and print the result rows",
		Long: `Run the plan of a query file.

The plan is prepared once. Each entry of bindings is bound in turn, which
rescans only the parts of the plan that depend on a changed parameter, and
the result row ids are printed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			results, _, err := execute(cmd.Context(), rootOpts, args[0], false)
			if err != nil {
				_ = f.Error(err)
				return err
			}
			return f.Success(results)
		},
	}

	return cmd
}

// execute runs the query file and, if explain is set, returns the EXPLAIN
// output after the last run.
func execute(ctx context.Context, opts *RootOptions, path string, explain bool, explainOpts ...ExplainFlag) ([]RunResult, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	qf, err := LoadQueryFile(path)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "read query file", err)
	}
	p, err := qf.BuildPlan()
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "build plan", err)
	}

	eng, err := openEngine(ctx, opts, qf)
	if err != nil {
		return nil, "", err
	}
	defer eng.Close()

	q, err := eng.Prepare(p)
	if err != nil {
		return nil, "", WrapExitError(ExitCommandError, "prepare", err)
	}
	defer q.Close()

	var results []RunResult
	for i, params := range qf.ParamSets() {
		if err := q.Bind(ctx, params); err != nil {
			return nil, "", WrapExitError(ExitFailure, fmt.Sprintf("bind run %d", i+1), err)
		}
		rows, err := q.Run(ctx)
		if err != nil {
			return nil, "", WrapExitError(ExitFailure, fmt.Sprintf("run %d", i+1), err)
		}
		ids := rows.ToArray()
		rows.Release()

		r := RunResult{Rows: make([]uint32, len(ids))}
		for j, id := range ids {
			r.Rows[j] = uint32(id)
		}
		if len(params) > 0 {
			r.Params = paramsView(params)
		}
		results = append(results, r)
	}

	if !explain {
		return results, "", nil
	}

	var b strings.Builder
	if err := q.Explain(&b, explainOptions(explainOpts)...); err != nil {
		return nil, "", WrapExitError(ExitFailure, "explain", err)
	}
	return results, b.String(), nil
}

// paramsView keys bound values by their "$n" name.
func paramsView(p vecand.Params) map[string]any {
	out := make(map[string]any, len(p))
	for id, v := range p {
		out[id.String()] = v
	}
	return out
}
