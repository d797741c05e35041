package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
)

// signalContext returns a context cancelled on the first interrupt. A second
// interrupt exits immediately.
func signalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, stopping simulation", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			return
		}
		select {
		case <-sigChan:
			logger.Warn("Second interrupt, exiting")
			os.Exit(130)
		case <-parent.Done():
		}
	}()

	return ctx, cancel
}
