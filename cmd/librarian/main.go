// Command librarian runs scripted lending scenarios against an in-memory lending registry.
//
// Usage:
//
//	librarian simulate --config librarian.yaml [--verbose] [--json]
//	librarian check-config --config librarian.yaml
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCommand(os.Stdout).ExecuteContext(ctx)
	stop()

	if err != nil {
		os.Exit(1)
	}
}
