// Package main is the entry point for the xgmetrics CLI, which scores NHL shot
// attempts with expected-goals models and reports their calibration.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pable/go-xg-metrics/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.Execute(ctx)
}
