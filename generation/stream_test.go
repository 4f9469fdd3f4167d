package generation_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/habiliai/oursgpt/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, s generation.Stream) ([]string, error) {
	t.Helper()
	var fragments []string
	for {
		f, err := s.Next()
		if err != nil {
			return fragments, err
		}
		fragments = append(fragments, f)
	}
}

func TestStaticStream(t *testing.T) {
	s := generation.StaticStream(context.Background(), "Hel", "lo")
	fragments, err := drain(t, s)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"Hel", "lo"}, fragments)

	_, err = s.Next()
	assert.Equal(t, io.EOF, err, "stream is not restartable")
}

func TestStreamErrorAfterFragments(t *testing.T) {
	boom := errors.New("boom")
	s := generation.NewStream(context.Background(), func(ctx context.Context, emit generation.EmitFunc) error {
		require.NoError(t, emit("partial"))
		return boom
	})

	fragments, err := drain(t, s)
	assert.Equal(t, []string{"partial"}, fragments)
	assert.ErrorIs(t, err, boom)
}

func TestStreamCancel(t *testing.T) {
	done := make(chan struct{})
	s := generation.NewStream(context.Background(), func(ctx context.Context, emit generation.EmitFunc) error {
		defer close(done)
		if err := emit("first"); err != nil {
			return err
		}
		<-ctx.Done()
		_ = emit("never")
		return ctx.Err()
	})

	f, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "first", f)

	s.Cancel()
	_, err = s.Next()
	assert.ErrorIs(t, err, context.Canceled)
	<-done

	_, err = s.Next()
	assert.ErrorIs(t, err, context.Canceled, "no fragment after cancel")
}

func TestStreamParentContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := generation.NewStream(ctx, func(ctx context.Context, emit generation.EmitFunc) error {
		<-ctx.Done()
		return nil
	})
	cancel()

	_, err := drain(t, s)
	assert.ErrorIs(t, err, context.Canceled)
}
