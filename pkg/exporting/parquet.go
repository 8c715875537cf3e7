package exporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
)

func init() {
	Register(&ParquetFormat{})
}

// ParquetFormat handles Parquet files.
type ParquetFormat struct{}

func (f *ParquetFormat) Name() string         { return "parquet" }
func (f *ParquetFormat) Extensions() []string { return []string{".parquet"} }
func (f *ParquetFormat) Reader() Reader       { return &ParquetReader{} }
func (f *ParquetFormat) Open(path string, opts ...WriterOption) (Writer, error) {
	return NewParquetWriter(path, opts...)
}

// ParquetReader reads Parquet files.
type ParquetReader struct {
	file  *os.File
	pfile *parquet.File
}

func (r *ParquetReader) Open(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open parquet file")
	}
	r.file = file

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return errors.Wrap(err, "stat parquet file")
	}

	pf, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return errors.Wrap(err, "open parquet file")
	}
	r.pfile = pf
	return nil
}

func (r *ParquetReader) Read() ([]Record, error) {
	if r.pfile == nil {
		return nil, errors.New("reader not initialized")
	}

	fields := r.pfile.Schema().Fields()
	records := make([]Record, 0, r.pfile.NumRows())
	rowBuf := make([]parquet.Row, 100)

	for _, rg := range r.pfile.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(rowBuf)
			for i := 0; i < n; i++ {
				record := make(Record, len(fields))
				for _, f := range fields {
					record[f.Name()] = nil
				}
				for _, val := range rowBuf[i] {
					col := val.Column()
					if col < 0 || col >= len(fields) || val.IsNull() {
						continue
					}
					record[fields[col].Name()] = parquetValueToGo(val)
				}
				records = append(records, record)
			}
			if err != nil {
				if err != io.EOF {
					_ = rows.Close()
					return nil, errors.Wrap(err, "read parquet rows")
				}
				break
			}
			if n == 0 {
				break
			}
		}
		_ = rows.Close()
	}
	return records, nil
}

func parquetValueToGo(v parquet.Value) interface{} {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}

func (r *ParquetReader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ParquetWriter keeps a single-row Parquet file holding the latest record.
// Every Write replaces the file contents. A failed Write leaves the last
// successfully written record in place.
type ParquetWriter struct {
	name   string
	path   string
	closed bool
	mu     sync.Mutex
}

// NewParquetWriter creates the parent directory of path. The file itself is
// written on the first Write.
func NewParquetWriter(path string, opts ...WriterOption) (*ParquetWriter, error) {
	o := applyOptions("parquet:"+path, opts)
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return &ParquetWriter{name: o.name, path: path}, nil
}

func (w *ParquetWriter) Name() string { return w.name }
func (w *ParquetWriter) Path() string { return w.path }

// Write replaces the file with a one-row table built from record.
func (w *ParquetWriter) Write(record Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return sinkError(w.name, KindIO, os.ErrClosed, "write")
	}

	schema := schemaFor(record)
	row, err := recordToRow(schema, record)
	if err != nil {
		return sinkError(w.name, KindSerialization, err, "encode row")
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.path), "."+filepath.Base(w.path)+".*")
	if err != nil {
		return sinkError(w.name, KindIO, err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	pw := parquet.NewWriter(tmp, schema, parquet.Compression(&parquet.Snappy))
	if _, err := pw.WriteRows([]parquet.Row{row}); err != nil {
		_ = tmp.Close()
		return sinkError(w.name, KindSerialization, err, "write parquet row")
	}
	if err := pw.Close(); err != nil {
		_ = tmp.Close()
		return sinkError(w.name, KindIO, err, "close parquet writer")
	}
	if err := tmp.Close(); err != nil {
		return sinkError(w.name, KindIO, err, "close temp file")
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return sinkError(w.name, KindIO, err, "replace parquet file")
	}
	return nil
}

// Close marks the writer closed. Nothing is buffered.
func (w *ParquetWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// schemaFor builds an all-optional schema from the record's value types.
// Absent values and composites become string columns.
func schemaFor(record Record) *parquet.Schema {
	group := make(parquet.Group, len(record))
	for name, val := range record {
		group[name] = valueToParquetNode(val)
	}
	return parquet.NewSchema("record", group)
}

func valueToParquetNode(val interface{}) parquet.Node {
	switch val.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32:
		return parquet.Optional(parquet.Int(64))
	case float32, float64:
		return parquet.Optional(parquet.Leaf(parquet.DoubleType))
	case bool:
		return parquet.Optional(parquet.Leaf(parquet.BooleanType))
	default:
		return parquet.Optional(parquet.String())
	}
}

// recordToRow lays values out in the schema's column order.
func recordToRow(schema *parquet.Schema, record Record) (parquet.Row, error) {
	fields := schema.Fields()
	row := make(parquet.Row, len(fields))
	for i, f := range fields {
		val := record[f.Name()]
		if val == nil {
			row[i] = parquet.NullValue().Level(0, 0, i)
			continue
		}
		pv, err := goToParquetValue(val)
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", f.Name())
		}
		row[i] = pv.Level(0, 1, i)
	}
	return row, nil
}

func goToParquetValue(val interface{}) (parquet.Value, error) {
	switch v := val.(type) {
	case bool:
		return parquet.BooleanValue(v), nil
	case int:
		return parquet.Int64Value(int64(v)), nil
	case int8:
		return parquet.Int64Value(int64(v)), nil
	case int16:
		return parquet.Int64Value(int64(v)), nil
	case int32:
		return parquet.Int64Value(int64(v)), nil
	case int64:
		return parquet.Int64Value(v), nil
	case uint:
		return parquet.Int64Value(int64(v)), nil
	case uint8:
		return parquet.Int64Value(int64(v)), nil
	case uint16:
		return parquet.Int64Value(int64(v)), nil
	case uint32:
		return parquet.Int64Value(int64(v)), nil
	case float32:
		return parquet.DoubleValue(float64(v)), nil
	case float64:
		return parquet.DoubleValue(v), nil
	case string:
		return parquet.ByteArrayValue([]byte(v)), nil
	case []string, []interface{}, map[string]interface{}:
		b, err := json.Marshal(v)
		if err != nil {
			return parquet.Value{}, err
		}
		return parquet.ByteArrayValue(b), nil
	default:
		return parquet.ByteArrayValue([]byte(fmt.Sprint(v))), nil
	}
}
