package cli

import (
	"fmt"

	"github.com/hupe1980/vecand"
	"github.com/hupe1980/vecand/codec"
	"github.com/spf13/cobra"
)

// SnapshotResult describes a written snapshot.
type SnapshotResult struct {
	Version     uint64 `json:"version"`
	Indexes     int    `json:"indexes"`
	Compression string `json:"compression"`
}

func (r SnapshotResult) String() string {
	return fmt.Sprintf("snapshot %d: %d indexes (%s)", r.Version, r.Indexes, r.Compression)
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	var compression string

	cmd := &cobra.Command{
		Use:   "snapshot <query.yaml>",
		Short: "Write the dataset of a query file to --store",
		Long: `Build the indexes of a query file's dataset and save them as a new
snapshot version at --store. Later runs can omit the dataset and load the
snapshot instead.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			res, err := runSnapshot(cmd, rootOpts, args[0], compression)
			if err != nil {
				_ = f.Error(err)
				return err
			}
			return f.Success(res)
		},
	}

	cmd.Flags().StringVarP(&compression, "compression", "c", "zstd", "blob compression (none|lz4|zstd)")

	return cmd
}

func runSnapshot(cmd *cobra.Command, opts *RootOptions, path, compression string) (*SnapshotResult, error) {
	ctx := cmd.Context()

	if opts.Store == "" {
		return nil, NewExitError(ExitCommandError, "--store is required")
	}
	ct, err := codec.ParseCompression(compression)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "compression", err)
	}

	qf, err := LoadQueryFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "read query file", err)
	}
	if qf.Dataset.IsEmpty() {
		return nil, NewExitError(ExitCommandError, "query file has no dataset")
	}
	cat, err := qf.Dataset.Catalog()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load dataset", err)
	}
	store, err := OpenStore(ctx, opts.Store)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}

	eng, err := vecand.New(cat,
		vecand.WithLogger(opts.logger()),
		vecand.WithResourceConfig(qf.Resources),
		vecand.WithSnapshotCompression(ct),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "engine", err)
	}
	defer eng.Close()

	m, err := eng.Snapshot(ctx, store)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "snapshot", err)
	}
	return &SnapshotResult{Version: m.ID, Indexes: len(m.Indexes), Compression: m.Compression.String()}, nil
}
