package exporting

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// ErrWriterClosed is returned by client-backed writers after Close.
var ErrWriterClosed = errors.New("writer closed")

var _ Writer = (*QueueWriter)(nil)

// Sender publishes one message to a queue or stream.
type Sender interface {
	Send(ctx context.Context, message []byte) error
}

// QueueWriter JSON encodes every record and hands it to an injected sender.
type QueueWriter struct {
	name   string
	sender Sender
	ctx    context.Context
	closed bool
	mu     sync.Mutex
}

// NewQueueWriter wraps sender. A nil sender is rejected.
func NewQueueWriter(sender Sender, opts ...WriterOption) (*QueueWriter, error) {
	if sender == nil {
		return nil, errors.New("queue writer requires a sender")
	}
	o := applyOptions("queue", opts)
	return &QueueWriter{name: o.name, sender: sender, ctx: o.ctx}, nil
}

func (w *QueueWriter) Name() string { return w.name }

func (w *QueueWriter) Write(record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return sinkError(w.name, KindSerialization, err, "marshal record")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return sinkError(w.name, KindClient, ErrWriterClosed, "send")
	}
	if err := w.sender.Send(w.ctx, data); err != nil {
		return sinkError(w.name, KindClient, err, "send")
	}
	return nil
}

func (w *QueueWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if c, ok := w.sender.(io.Closer); ok {
		return errors.Wrap(c.Close(), "close queue sender")
	}
	return nil
}
