package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/hupe1980/vecand"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Store   string // snapshot location, see OpenStore
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the vecand CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "vecand",
		Short: "vecand - hybrid filter and similarity plans",
		Long:  "Run BitmapAnd plans that combine metadata filters with a nearest neighbor probe.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "snapshot location (dir, file://, s3://, minio://)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))

	return cmd
}

// logger returns the engine logger for the verbosity flag.
func (o *RootOptions) logger() *vecand.Logger {
	if o.Verbose {
		return vecand.NewTextLogger(os.Stderr, slog.LevelDebug)
	}
	return vecand.NewTextLogger(os.Stderr, slog.LevelWarn)
}

// openEngine builds an engine over the query file's dataset, or over the
// snapshot at --store when the file has none.
func openEngine(ctx context.Context, opts *RootOptions, qf *QueryFile) (*vecand.Engine, error) {
	engineOpts := []vecand.Option{
		vecand.WithLogger(opts.logger()),
		vecand.WithResourceConfig(qf.Resources),
	}
	if qf.WorkMem > 0 {
		engineOpts = append(engineOpts, vecand.WithWorkMem(qf.WorkMem))
	}

	if qf.Dataset.IsEmpty() {
		if opts.Store == "" {
			return nil, NewExitError(ExitCommandError, "query file has no dataset and --store is not set")
		}
		store, err := OpenStore(ctx, opts.Store)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open store", err)
		}
		return vecand.Open(ctx, store, engineOpts...)
	}

	cat, err := qf.Dataset.Catalog()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load dataset", err)
	}
	return vecand.New(cat, engineOpts...)
}
