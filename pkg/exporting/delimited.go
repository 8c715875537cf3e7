package exporting

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"PipelineMonitor/pkg/metrics"
	"PipelineMonitor/pkg/utils"
)

func init() {
	Register(&CSVFormat{})
	Register(&TSVFormat{})
}

// CSVFormat handles CSV files.
type CSVFormat struct{}

func (f *CSVFormat) Name() string         { return "csv" }
func (f *CSVFormat) Extensions() []string { return []string{".csv"} }
func (f *CSVFormat) Reader() Reader       { return &DelimitedReader{delimiter: ','} }
func (f *CSVFormat) Open(path string, opts ...WriterOption) (Writer, error) {
	return NewDelimitedWriter(path, ',', opts...)
}

// TSVFormat handles TSV files.
type TSVFormat struct{}

func (f *TSVFormat) Name() string         { return "tsv" }
func (f *TSVFormat) Extensions() []string { return []string{".tsv"} }
func (f *TSVFormat) Reader() Reader       { return &DelimitedReader{delimiter: '\t'} }
func (f *TSVFormat) Open(path string, opts ...WriterOption) (Writer, error) {
	return NewDelimitedWriter(path, '\t', opts...)
}

// DelimitedReader reads CSV/TSV files.
type DelimitedReader struct {
	file      *os.File
	reader    *csv.Reader
	header    []string
	delimiter rune
}

// Open opens the file and reads the header row.
func (r *DelimitedReader) Open(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open delimited file")
	}
	r.file = file
	r.reader = csv.NewReader(file)
	r.reader.Comma = r.delimiter
	r.reader.FieldsPerRecord = -1
	r.reader.LazyQuotes = true

	header, err := r.reader.Read()
	if err != nil {
		_ = r.file.Close()
		return errors.Wrap(err, "read header")
	}
	r.header = header
	return nil
}

// Read parses all records from the file.
func (r *DelimitedReader) Read() ([]Record, error) {
	var records []Record
	for {
		row, err := r.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, r.rowToRecord(row))
	}
	return records, nil
}

// rowToRecord maps cells onto the header. Empty cells are absent values.
// Record fields keep their stored type: integer fields are parsed and the
// rest stay strings. Columns outside the record schema are guessed.
func (r *DelimitedReader) rowToRecord(row []string) Record {
	record := make(Record, len(r.header))
	for _, key := range r.header {
		record[key] = nil
	}

	for i, val := range row {
		if i >= len(r.header) || val == "" {
			continue
		}
		key := r.header[i]

		if f, ok := metrics.Lookup(key); ok {
			record[key] = val
			if f.Kind == metrics.KindInt {
				if i64, err := strconv.ParseInt(val, 10, 64); err == nil {
					record[key] = i64
				}
			}
			continue
		}
		record[key] = guessValue(val)
	}
	return record
}

func guessValue(val string) interface{} {
	if i64, err := strconv.ParseInt(val, 10, 64); err == nil {
		return i64
	}
	if f, err := strconv.ParseFloat(val, 64); err == nil && strings.Contains(val, ".") {
		return f
	}
	if strings.EqualFold(val, "true") {
		return true
	}
	if strings.EqualFold(val, "false") {
		return false
	}
	return val
}

// Close closes the underlying file handle.
func (r *DelimitedReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// DelimitedWriter appends rows to a CSV/TSV file. The header is written
// once; when appending to an existing file its header is reused and keys
// outside it are not written.
type DelimitedWriter struct {
	name      string
	path      string
	file      *os.File
	writer    *csv.Writer
	header    []string
	columns   []string
	delimiter rune
	mu        sync.Mutex
}

// NewDelimitedWriter opens path for appending.
func NewDelimitedWriter(path string, delimiter rune, opts ...WriterOption) (*DelimitedWriter, error) {
	kind := "csv"
	if delimiter == '\t' {
		kind = "tsv"
	}
	o := applyOptions(kind+":"+path, opts)

	if err := ensureDir(path); err != nil {
		return nil, err
	}
	header, err := readHeader(path, delimiter)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open delimited file")
	}

	w := &DelimitedWriter{
		name:      o.name,
		path:      path,
		file:      file,
		writer:    csv.NewWriter(file),
		header:    header,
		columns:   o.columns,
		delimiter: delimiter,
	}
	w.writer.Comma = delimiter
	return w, nil
}

// readHeader returns the first row of an existing, non-empty file.
func readHeader(path string, delimiter rune) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "stat delimited file")
	}

	r := &DelimitedReader{delimiter: delimiter}
	if err := r.Open(path); err != nil {
		return nil, err
	}
	defer r.Close()
	return r.header, nil
}

func (w *DelimitedWriter) Name() string { return w.name }
func (w *DelimitedWriter) Path() string { return w.path }

// Write appends a single record and flushes it.
func (w *DelimitedWriter) Write(record Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return sinkError(w.name, KindIO, os.ErrClosed, "write")
	}

	if w.header == nil {
		header := columnOrder(record, w.columns)
		if err := w.writer.Write(header); err != nil {
			return sinkError(w.name, KindIO, err, "write header")
		}
		w.header = header
	}

	row := make([]string, len(w.header))
	for i, key := range w.header {
		row[i] = utils.FormatValue(record[key])
	}
	if err := w.writer.Write(row); err != nil {
		return sinkError(w.name, KindIO, err, "write row")
	}

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return sinkError(w.name, KindIO, err, "flush")
	}
	return nil
}

// Close flushes the buffer and closes the file.
func (w *DelimitedWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	w.writer.Flush()
	flushErr := w.writer.Error()
	closeErr := w.file.Close()
	w.file = nil
	if flushErr != nil {
		return errors.Wrap(flushErr, "flush delimited file")
	}
	return closeErr
}
