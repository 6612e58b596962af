package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultMaxAttempts = 5
	DefaultBackoff     = 100 * time.Millisecond
)

// Runner executes operations as atomic units and re-runs them from scratch
// when the store reports a conflict. Domain failures are never retried.
type Runner struct {
	repo        Repository
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
	onRetry     func(op string)
}

type RunnerOption func(*Runner)

func WithMaxAttempts(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBackoff sets the base delay. Attempt n waits n times this value.
func WithBackoff(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.backoff = d
	}
}

func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRetryHook registers a callback invoked before every retry.
func WithRetryHook(fn func(op string)) RunnerOption {
	return func(r *Runner) {
		r.onRetry = fn
	}
}

func NewRunner(repo Repository, opts ...RunnerOption) *Runner {
	r := &Runner{
		repo:        repo,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Repository exposes the underlying store for plain reads.
func (r *Runner) Repository() Repository {
	return r.repo
}

// Run executes fn inside a fresh Tx and commits it. fn may be invoked more
// than once, so it must not have effects outside tx.
func (r *Runner) Run(ctx context.Context, op string, fn func(ctx context.Context, tx Tx) error) error {
	var err error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err = r.attempt(ctx, fn)
		if err == nil || !errors.Is(err, ErrConflict) {
			return err
		}

		if attempt == r.maxAttempts {
			break
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		r.logger.Warn("retrying atomic unit after conflict", "op", op, "attempt", attempt, "error", err)

		if r.onRetry != nil {
			r.onRetry(op)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.backoff * time.Duration(attempt)):
		}
	}

	return fmt.Errorf("%s: gave up after %d attempts: %w", op, r.maxAttempts, err)
}

func (r *Runner) attempt(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := r.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}
