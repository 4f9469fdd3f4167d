package generation

import (
	"context"
	"io"
	"sync/atomic"
)

// EmitFunc hands one fragment to the consumer. It fails once the stream
// is cancelled.
type EmitFunc func(fragment string) error

type channelStream struct {
	ch        chan string
	err       error
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

var _ Stream = (*channelStream)(nil)

// NewStream runs produce in its own goroutine and exposes what it emits as
// a Stream. A non-nil error from produce is returned by Next once the
// fragments emitted before it are consumed.
func NewStream(ctx context.Context, produce func(ctx context.Context, emit EmitFunc) error) Stream {
	ctx, cancel := context.WithCancel(ctx)
	s := &channelStream{
		ch:     make(chan string, 16),
		cancel: cancel,
	}

	go func() {
		defer close(s.ch)
		err := produce(ctx, func(fragment string) error {
			select {
			case s.ch <- fragment:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err == nil {
			err = ctx.Err()
		}
		s.err = err
	}()

	return s
}

// StaticStream yields the given fragments and ends.
func StaticStream(ctx context.Context, fragments ...string) Stream {
	return NewStream(ctx, func(_ context.Context, emit EmitFunc) error {
		for _, f := range fragments {
			if err := emit(f); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *channelStream) Next() (string, error) {
	if s.cancelled.Load() {
		return "", context.Canceled
	}

	fragment, ok := <-s.ch
	if s.cancelled.Load() {
		return "", context.Canceled
	}
	if !ok {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	return fragment, nil
}

func (s *channelStream) Cancel() {
	s.cancelled.Store(true)
	s.cancel()
}
