package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"expenses/cmd/expensectl/ctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ctl.Main(ctx, os.Args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "err: %s\n", err)
		stop()
		os.Exit(1)
	}
}
