package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Supervisor owns the lifecycle of every worker loop in the process. Workers
// are registered with Go and all stop together: on Stop, or when any worker
// returns an error (infrastructure failures cancel the whole group rather
// than leaving the pipeline half-alive).
type Supervisor struct {
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewSupervisor creates a supervisor rooted at ctx.
func NewSupervisor(ctx context.Context, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)
	return &Supervisor{group: group, ctx: ctx, cancel: cancel, logger: logger}
}

// Go starts a named worker loop. The loop should watch ctx and return when it
// is cancelled; a non-nil error from any loop cancels all the others.
func (s *Supervisor) Go(name string, fn func(ctx context.Context) error) {
	s.logger.Debug("worker starting", "worker", name)
	s.group.Go(func() error {
		err := fn(s.ctx)
		if err != nil && err != context.Canceled {
			s.logger.Error("worker stopped", "worker", name, "error", err)
			return err
		}
		s.logger.Debug("worker stopped", "worker", name)
		return nil
	})
}

// Stop cancels every worker and waits for them to exit. It returns the first
// error a worker returned, if any.
func (s *Supervisor) Stop() error {
	s.cancel()
	return s.group.Wait()
}

// Wait blocks until all workers have exited on their own.
func (s *Supervisor) Wait() error {
	return s.group.Wait()
}
