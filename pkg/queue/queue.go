// Package queue provides message senders for the queue writer.
package queue

import (
	"context"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// ErrFull is returned by Memory.Send when the buffer is full.
var ErrFull = errors.New("queue full")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("queue closed")

// Memory is a bounded in-process queue. Send never blocks.
type Memory struct {
	ch     chan []byte
	mu     sync.RWMutex
	closed bool
}

// NewMemory returns a queue holding up to size messages.
func NewMemory(size int) *Memory {
	if size < 1 {
		size = 1
	}
	return &Memory{ch: make(chan []byte, size)}
}

// Send enqueues a copy of message.
func (m *Memory) Send(ctx context.Context, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	msg := make([]byte, len(message))
	copy(msg, message)
	select {
	case m.ch <- msg:
		return nil
	default:
		return ErrFull
	}
}

// Receive blocks until a message is available, the queue is closed and
// drained, or ctx is done.
func (m *Memory) Receive(ctx context.Context) ([]byte, error) {
	select {
	case msg, ok := <-m.ch:
		if !ok {
			return nil, ErrClosed
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len returns the number of queued messages.
func (m *Memory) Len() int {
	return len(m.ch)
}

// Close stops accepting messages. Queued messages can still be received.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.ch)
	}
	return nil
}

// Stream writes each message as one line to an io.Writer.
type Stream struct {
	w  io.Writer
	mu sync.Mutex
}

// NewStream wraps w. The writer is not closed by the stream.
func NewStream(w io.Writer) *Stream {
	return &Stream{w: w}
}

// Send writes message followed by a newline.
func (s *Stream) Send(ctx context.Context, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	line := make([]byte, 0, len(message)+1)
	line = append(append(line, message...), '\n')
	if _, err := s.w.Write(line); err != nil {
		return errors.Wrap(err, "write message")
	}
	return nil
}
