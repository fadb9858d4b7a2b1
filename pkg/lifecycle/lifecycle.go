// Package lifecycle hooks process signals to context cancellation for the command-line tools.
package lifecycle

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownGrace is how long the tools get to zero motors and close transports after a signal
// before the process exits regardless.
const ShutdownGrace = 2 * time.Second

// CancelOnSignal cancels the context on SIGINT or SIGTERM and exits the process ShutdownGrace
// later.
func CancelOnSignal(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go watch(signals, cancelFunc, ShutdownGrace, os.Exit)
}

func watch(signals <-chan os.Signal, cancelFunc context.CancelFunc, grace time.Duration, exit func(int)) {
	s := <-signals
	log.Println("Signal: ", s)
	cancelFunc()
	time.Sleep(grace)
	exit(0)
}
