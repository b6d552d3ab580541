// ABOUTME: Entry point for the clipbook clipboard history manager
// ABOUTME: Dispatches to the cobra command tree in internal/cli

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/thuanpham582002/ClipBook/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
