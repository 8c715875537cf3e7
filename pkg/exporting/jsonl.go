package exporting

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"
)

const (
	DefaultBufferSize = 64 * 1024
	MaxLineSize       = 10 * 1024 * 1024
)

func init() {
	Register(&JSONLFormat{})
}

// JSONLFormat handles JSON Lines format.
type JSONLFormat struct{}

func (f *JSONLFormat) Name() string         { return "jsonl" }
func (f *JSONLFormat) Extensions() []string { return []string{".jsonl", ".json", ".log"} }
func (f *JSONLFormat) Reader() Reader       { return &JSONLReader{} }
func (f *JSONLFormat) Open(path string, opts ...WriterOption) (Writer, error) {
	return NewJSONLWriter(path, opts...)
}

// JSONLReader reads JSONL files.
type JSONLReader struct {
	file    *os.File
	scanner *bufio.Scanner
}

func (r *JSONLReader) Open(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open jsonl file")
	}
	r.file = file
	r.scanner = bufio.NewScanner(file)
	r.scanner.Buffer(make([]byte, DefaultBufferSize), MaxLineSize)
	return nil
}

// Read returns every well-formed line. Malformed lines are skipped.
func (r *JSONLReader) Read() ([]Record, error) {
	var records []Record
	for r.scanner.Scan() {
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record Record
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		records = append(records, record)
	}

	if err := r.scanner.Err(); err != nil {
		return records, errors.Wrap(err, "scan jsonl file")
	}
	return records, nil
}

func (r *JSONLReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// JSONLWriter appends one JSON object per line to a file that stays open
// for the writer's lifetime. Every Write is flushed to the file.
type JSONLWriter struct {
	name   string
	path   string
	file   *os.File
	writer *bufio.Writer
	mu     sync.Mutex
}

// NewJSONLWriter opens path in append mode, creating it and its directory
// when needed.
func NewJSONLWriter(path string, opts ...WriterOption) (*JSONLWriter, error) {
	o := applyOptions("jsonl:"+path, opts)
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open jsonl file")
	}
	return &JSONLWriter{
		name:   o.name,
		path:   path,
		file:   file,
		writer: bufio.NewWriterSize(file, DefaultBufferSize),
	}, nil
}

func (w *JSONLWriter) Name() string { return w.name }
func (w *JSONLWriter) Path() string { return w.path }

func (w *JSONLWriter) Write(record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return sinkError(w.name, KindSerialization, err, "marshal record")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return sinkError(w.name, KindIO, os.ErrClosed, "write")
	}
	if _, err := w.writer.Write(data); err != nil {
		return sinkError(w.name, KindIO, err, "write record")
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return sinkError(w.name, KindIO, err, "write newline")
	}
	if err := w.writer.Flush(); err != nil {
		return sinkError(w.name, KindIO, err, "flush")
	}
	return nil
}

func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	flushErr := w.writer.Flush()
	closeErr := w.file.Close()
	w.file = nil
	if flushErr != nil {
		return errors.Wrap(flushErr, "flush jsonl file")
	}
	return closeErr
}
