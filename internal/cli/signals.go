package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/threadworks/stealpool/core"
)

// SetupSignalHandler creates a context that is cancelled on SIGINT or
// SIGTERM. A second signal forces immediate exit.
func SetupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger := core.NewDefaultLogger()

		sig := <-sigCh
		logger.Info("received shutdown signal", core.F("signal", sig.String()))
		cancel()

		// Second signal forces immediate exit
		sig = <-sigCh
		logger.Warn("received second shutdown signal, forcing exit", core.F("signal", sig.String()))
		os.Exit(1)
	}()

	return ctx
}
