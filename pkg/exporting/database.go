package exporting

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
)

var _ Writer = (*DBWriter)(nil)

// Inserter stores one record in a database table or document store.
type Inserter interface {
	Insert(ctx context.Context, record Record) error
}

// DBWriter inserts every record through an injected client. The writer does
// not create the client; Close closes it only when it implements io.Closer.
type DBWriter struct {
	name   string
	client Inserter
	ctx    context.Context
	closed bool
	mu     sync.Mutex
}

// NewDBWriter wraps client. A nil client is rejected.
func NewDBWriter(client Inserter, opts ...WriterOption) (*DBWriter, error) {
	if client == nil {
		return nil, errors.New("database writer requires a client")
	}
	o := applyOptions("database", opts)
	return &DBWriter{name: o.name, client: client, ctx: o.ctx}, nil
}

func (w *DBWriter) Name() string { return w.name }

func (w *DBWriter) Write(record Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return sinkError(w.name, KindClient, ErrWriterClosed, "insert")
	}
	if err := w.client.Insert(w.ctx, record); err != nil {
		return sinkError(w.name, KindClient, err, "insert")
	}
	return nil
}

func (w *DBWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	if c, ok := w.client.(io.Closer); ok {
		return errors.Wrap(c.Close(), "close database client")
	}
	return nil
}
