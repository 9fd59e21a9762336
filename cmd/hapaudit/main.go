package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/hapaudit/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := cli.New(os.Stderr, cli.LogInfo)
	err := c.RootCommand().ExecuteContext(ctx)
	code := cli.ExitCode(err)
	if code != cli.ExitOK && code != cli.ExitCancelled {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(code)
}
