package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/jobdrop-api/pkg/config"
)

type closeRecorder struct {
	calls []string
	err   error
}

func (c *closeRecorder) Close() error {
	c.calls = append(c.calls, "close")
	return c.err
}

func TestCloseAfterRunsShutdownFirst(t *testing.T) {
	rec := &closeRecorder{}
	shutdown := closeAfter(func(context.Context) error {
		rec.calls = append(rec.calls, "shutdown")
		return nil
	}, rec)

	require.NoError(t, shutdown(context.Background()))
	assert.Equal(t, []string{"shutdown", "close"}, rec.calls)
}

func TestCloseAfterKeepsShutdownError(t *testing.T) {
	rec := &closeRecorder{err: errors.New("close failed")}
	flushErr := errors.New("flush failed")
	shutdown := closeAfter(func(context.Context) error { return flushErr }, rec)

	assert.ErrorIs(t, shutdown(context.Background()), flushErr)
	assert.Equal(t, []string{"close"}, rec.calls)

	rec = &closeRecorder{err: errors.New("close failed")}
	shutdown = closeAfter(func(context.Context) error { return nil }, rec)
	assert.EqualError(t, shutdown(context.Background()), "close failed")
}

func TestInitWritesSpansToOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spans.json")
	shutdown, err := Init(context.Background(), "jobdrop-test", config.TracingConfig{Enabled: true, Output: path})
	require.NoError(t, err)

	_, span := Start(context.Background(), "approval.decide", map[string]string{"entity": "job"})
	End(span, nil)
	require.NoError(t, shutdown(context.Background()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "approval.decide")
}

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), "jobdrop-test", config.TracingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
