// Package shutdown gives a cluster rank process one cancellable
// context tied to SIGINT/SIGTERM, with a set of cleanup callbacks, each
// run in its own goroutine in no fixed order, when either a signal
// arrives or the frame loop's own context is cancelled out from under it. Adapted from the teacher's
// GracefulShutdown: its sibling ResourceManager/ContextShutdown/
// SignalHandler types modeled the same cancel-then-wait-with-timeout
// shape three more times for call sites this module never has (one
// rank process has exactly one shutdown path), so they were dropped
// rather than carried forward unused.
package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gravit-cluster/gvtcore/internal/corelog"
)

// CleanupFunc runs during shutdown with a bounded context.
type CleanupFunc func(ctx context.Context) error

// GracefulShutdown cancels ctx on SIGINT/SIGTERM (or on the parent
// ctx's own cancellation) and waits, up to a timeout, for every
// registered cleanup to finish before returning control to main.
type GracefulShutdown struct {
	ctx    context.Context
	cancel context.CancelFunc
	sigCh  chan os.Signal
	log    *corelog.Logger

	mu             sync.Mutex
	isShuttingDown bool
	wg             sync.WaitGroup

	shutdownTimeout time.Duration
	cleanupTimeout  time.Duration
}

// New builds a GracefulShutdown wrapping ctx, logging through log. A nil
// log is fine: corelog.Logger methods are not nil-safe, so this package
// checks for nil itself and prints via fmt instead.
func New(ctx context.Context, log *corelog.Logger) *GracefulShutdown {
	ctx, cancel := context.WithCancel(ctx)
	return &GracefulShutdown{
		ctx:             ctx,
		cancel:          cancel,
		sigCh:           make(chan os.Signal, 1),
		log:             log,
		shutdownTimeout: 30 * time.Second,
		cleanupTimeout:  10 * time.Second,
	}
}

func (gs *GracefulShutdown) printf(format string, args ...any) {
	if gs.log != nil {
		gs.log.Printf(format, args...)
		return
	}
	fmt.Printf(format+"\n", args...)
}

// Start begins listening for SIGINT/SIGTERM in the background.
func (gs *GracefulShutdown) Start() {
	signal.Notify(gs.sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-gs.sigCh:
			gs.printf("received signal %v, shutting down", sig)
			gs.Shutdown()
		case <-gs.ctx.Done():
		}
	}()
}

// Context is the cancellable context every long-running component
// (a scheduler's RunFrame, an async exchange goroutine) should select
// on alongside its own work.
func (gs *GracefulShutdown) Context() context.Context {
	return gs.ctx
}

// AddCleanupFunc registers a named callback that runs once Shutdown
// cancels ctx, bounded by the cleanup timeout.
func (gs *GracefulShutdown) AddCleanupFunc(name string, fn CleanupFunc) {
	gs.wg.Add(1)
	go func() {
		defer gs.wg.Done()
		<-gs.ctx.Done()

		cleanupCtx, cancel := context.WithTimeout(context.Background(), gs.cleanupTimeout)
		defer cancel()

		if err := fn(cleanupCtx); err != nil {
			gs.printf("cleanup %q failed: %v", name, err)
			return
		}
		gs.printf("cleanup %q done", name)
	}()
}

// Shutdown cancels the context and blocks until every registered
// cleanup finishes or the shutdown timeout elapses, in which case the
// process exits non-zero rather than hang.
func (gs *GracefulShutdown) Shutdown() {
	gs.mu.Lock()
	if gs.isShuttingDown {
		gs.mu.Unlock()
		return
	}
	gs.isShuttingDown = true
	gs.mu.Unlock()

	gs.cancel()

	done := make(chan struct{})
	go func() {
		gs.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		gs.printf("shutdown complete")
	case <-time.After(gs.shutdownTimeout):
		gs.printf("shutdown timed out, forcing exit")
		os.Exit(1)
	}
}

// IsShuttingDown reports whether Shutdown has already started.
func (gs *GracefulShutdown) IsShuttingDown() bool {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.isShuttingDown
}
