package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context that is canceled on SIGINT or
// SIGTERM. The run command passes it down so the server, retention
// scheduler, and config watcher all stop from the one signal. The stop
// function releases the signal registration; a second signal after stop
// kills the process the default way.
func SetupSignalHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
