// File: cmd/boxflow/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/boxflow/cmd"
)

// Allows mocking os.Exit in tests.
var osExit = os.Exit

func main() {
	// Cancel on SIGINT/SIGTERM so watch mode and long batches stop cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx)
	stop()
	osExit(code)
}

func run(ctx context.Context) int {
	if err := cmd.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
