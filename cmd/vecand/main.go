// Command vecand runs hybrid filter and similarity plans from YAML query
// files.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/hupe1980/vecand/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(cli.GetExitCode(err))
}
