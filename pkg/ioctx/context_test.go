package ioctx

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	ctx := context.Background()

	require.Equal(t, io.Discard, StdoutFromContext(ctx))
	require.Equal(t, io.Discard, StderrFromContext(ctx))
	require.Equal(t, slog.Default(), LoggerFromContext(ctx))

	n, err := StdinFromContext(ctx).Read(make([]byte, 1))
	require.Zero(t, n)
	require.ErrorIs(t, err, io.EOF)
}

func TestRoundTrip(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&stderr, nil))

	ctx := context.Background()
	ctx = StdinToContext(ctx, bytes.NewBufferString("{}\n"))
	ctx = StdoutToContext(ctx, &stdout)
	ctx = StderrToContext(ctx, &stderr)
	ctx = LoggerToContext(ctx, logger)

	require.Same(t, &stdout, StdoutFromContext(ctx))
	require.Same(t, &stderr, StderrFromContext(ctx))
	require.Same(t, logger, LoggerFromContext(ctx))

	in, err := io.ReadAll(StdinFromContext(ctx))
	require.NoError(t, err)
	require.Equal(t, "{}\n", string(in))
}
