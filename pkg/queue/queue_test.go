package queue

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PipelineMonitor/pkg/exporting"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(2)

	msg := []byte("one")
	require.NoError(t, q.Send(ctx, msg))
	msg[0] = 'X'
	require.NoError(t, q.Send(ctx, []byte("two")))
	assert.ErrorIs(t, q.Send(ctx, []byte("three")), ErrFull)
	assert.Equal(t, 2, q.Len())

	got, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", string(got))

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	assert.ErrorIs(t, q.Send(ctx, []byte("x")), ErrClosed)

	got, err = q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
	_, err = q.Receive(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryReceiveContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := NewMemory(1).Receive(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStream(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf)
	require.NoError(t, s.Send(context.Background(), []byte(`{"a":1}`)))
	require.NoError(t, s.Send(context.Background(), []byte(`{"a":2}`)))
	assert.Equal(t, "{\"a\":1}\n{\"a\":2}\n", buf.String())
}

func TestQueueWriterIntegration(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(4)
	w, err := exporting.NewQueueWriter(q)
	require.NoError(t, err)

	require.NoError(t, w.Write(exporting.Record{"status": "completed"}))
	got, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"completed"}`, string(got))

	require.NoError(t, w.Close())
	assert.ErrorIs(t, q.Send(ctx, []byte("x")), ErrClosed)
}
