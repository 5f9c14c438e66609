package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DaemonFunc represents the work a daemon does. Returning nil stops the
// daemon; returning an error restarts it after the manager's backoff.
type DaemonFunc func(ctx context.Context, name string) error

// DaemonManager supervises multiple daemons.
type DaemonManager struct {
	logger  *slog.Logger
	daemons map[string]DaemonFunc
	backoff time.Duration
	wg      sync.WaitGroup
}

func NewDaemonManager(logger *slog.Logger) *DaemonManager {
	return &DaemonManager{
		logger:  logger,
		daemons: make(map[string]DaemonFunc),
		backoff: 2 * time.Second,
	}
}

// Add registers a daemon by name.
func (m *DaemonManager) Add(name string, fn DaemonFunc) {
	m.daemons[name] = fn
}

// Start runs all daemons and restarts them if they crash.
func (m *DaemonManager) Start(ctx context.Context) {
	for name, fn := range m.daemons {
		m.wg.Add(1)
		go m.runDaemon(ctx, name, fn)
	}
}

// Wait blocks until all daemons have stopped.
func (m *DaemonManager) Wait() {
	m.wg.Wait()
}

func (m *DaemonManager) runDaemon(ctx context.Context, name string, fn DaemonFunc) {
	defer m.wg.Done()

	for {
		if ctx.Err() != nil {
			m.logger.Debug("Daemon received shutdown signal", "daemon", name)
			return
		}

		err := m.call(ctx, name, fn)
		if err == nil {
			m.logger.Debug("Daemon exited cleanly", "daemon", name)
			return
		}

		m.logger.Error("Daemon crashed, restarting", "daemon", name, "error", err, "backoff", m.backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.backoff):
		}
	}
}

// call turns a panic inside a daemon into a restart.
func (m *DaemonManager) call(ctx context.Context, name string, fn DaemonFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return fn(ctx, name)
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// Every runs fn on a ticker until the context ends. An error from fn
// crashes the daemon.
func Every(interval time.Duration, fn func(ctx context.Context) error) DaemonFunc {
	return func(ctx context.Context, name string) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := fn(ctx); err != nil {
					return err
				}
			}
		}
	}
}
