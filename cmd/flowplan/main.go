// Command flowplan balances factory production networks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/flowplan/internal/cli"
	"github.com/matzehuels/flowplan/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.New(os.Stderr, cli.LogInfo).RootCommand().ExecuteContext(ctx)
	stop()

	code := errors.ExitCode(err)
	if code != errors.ExitOK && code != errors.ExitCancelled {
		fmt.Fprintln(os.Stderr, "flowplan:", err)
	}
	os.Exit(code)
}
