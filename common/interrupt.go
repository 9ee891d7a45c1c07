package common

import (
	"os"
	"os/signal"
	"syscall"
)

// Interrupted delivers the shutdown signals: interrupt, SIGTERM and SIGQUIT.
func Interrupted() <-chan os.Signal {
	interrupt := make(chan os.Signal, 2)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	return interrupt
}
