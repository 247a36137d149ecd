package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/seabattle/internal/game"
)

// DefaultTimeout bounds each store call unless configured otherwise.
const DefaultTimeout = 2000 * time.Millisecond

// Timed wraps a Store so that every call returns within a deadline.
//
// Error classification:
//   - deadline or cancellation before the store answers → ErrStorageTimeout
//     (the underlying call keeps running; its effect is unknown).
//   - ErrNotFound / ErrActiveExists → passed through.
//   - anything else → wrapped in ErrStorage.
type Timed struct {
	next    Store
	timeout time.Duration
}

// WithTimeout decorates next. A non-positive d means DefaultTimeout.
func WithTimeout(next Store, d time.Duration) *Timed {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &Timed{next: next, timeout: d}
}

// Save persists a snapshot of g, so the caller may keep mutating g even if
// the underlying write outlives the deadline.
func (t *Timed) Save(ctx context.Context, g *game.Game) error {
	snap := g.Clone()
	_, err := call(ctx, t.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.next.Save(ctx, snap)
	})
	return err
}

func (t *Timed) Load(ctx context.Context, playerID string) (*game.Game, error) {
	return call(ctx, t.timeout, func(ctx context.Context) (*game.Game, error) {
		return t.next.Load(ctx, playerID)
	})
}

func (t *Timed) DeleteActive(ctx context.Context, playerID string) error {
	_, err := call(ctx, t.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.next.DeleteActive(ctx, playerID)
	})
	return err
}

func (t *Timed) History(ctx context.Context, playerID string, limit int) ([]*game.Game, error) {
	return call(ctx, t.timeout, func(ctx context.Context) ([]*game.Game, error) {
		return t.next.History(ctx, playerID, limit)
	})
}

func (t *Timed) Reassign(ctx context.Context, from, to string) error {
	_, err := call(ctx, t.timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.next.Reassign(ctx, from, to)
	})
	return err
}

type result[T any] struct {
	v   T
	err error
}

func call[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- result[T]{v: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		return r.v, classify(r.err)
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %w", ErrStorageTimeout, ctx.Err())
	}
}

func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrActiveExists),
		errors.Is(err, ErrStorage), errors.Is(err, ErrStorageTimeout):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", ErrStorageTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}
