package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"podium/internal/services"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, services.UserMessage(err))
		os.Exit(1)
	}
}
