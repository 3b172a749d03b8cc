// Command propfinder runs property searches and manages user listings from the terminal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Version is set via ldflags at build time
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
