package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// SetupSignalHandling cancels the run context on SIGINT/SIGTERM so an
// in-flight batch can wind down instead of being killed mid-request.
func SetupSignalHandling(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warnf("⚠️ received signal %v, shutting down...", sig)
		cancel()
	}()
}
