package executor

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// OnInterrupt runs cleanup once when the process receives SIGINT or
// SIGTERM, or when ctx is cancelled. The returned stop function
// unregisters the handler without running cleanup.
func OnInterrupt(ctx context.Context, cleanup func()) (stop func()) {
	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)

	var once sync.Once
	stopped := make(chan struct{})

	go func() {
		select {
		case <-sigCtx.Done():
			select {
			case <-stopped:
			default:
				once.Do(cleanup)
			}
		case <-stopped:
		}
	}()

	var stopOnce sync.Once
	return func() {
		stopOnce.Do(func() {
			once.Do(func() {})
			close(stopped)
			cancel()
		})
	}
}
