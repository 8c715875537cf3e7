// Package exporting persists metric records to output sinks.
package exporting

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Record is a flat map representing a single metric record.
type Record = map[string]interface{}

// Writer persists one record per Write call to a destination it owns.
type Writer interface {
	Name() string
	Write(record Record) error
	Close() error
}

// FileWriter is a Writer backed by a local file.
type FileWriter interface {
	Writer
	Path() string
}

var (
	_ FileWriter = (*JSONLWriter)(nil)
	_ FileWriter = (*DelimitedWriter)(nil)
	_ FileWriter = (*ParquetWriter)(nil)
)

// Format is a file format with a writer and a reader.
type Format interface {
	Name() string
	Extensions() []string
	Reader() Reader
	Open(path string, opts ...WriterOption) (Writer, error)
}

// Reader reads records from a file.
type Reader interface {
	Open(path string) error
	Read() ([]Record, error)
	Close() error
}

// Registry management
var (
	registry    = make(map[string]Format)
	extRegistry = make(map[string]Format)
)

// Register adds a format to the registry.
func Register(f Format) {
	name := strings.ToLower(f.Name())
	registry[name] = f
	for _, ext := range f.Extensions() {
		extRegistry[strings.ToLower(ext)] = f
	}
}

// Get returns a format by name.
func Get(name string) (Format, bool) {
	f, ok := registry[strings.ToLower(name)]
	return f, ok
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetByExtension returns a format by file extension.
func GetByExtension(ext string) (Format, bool) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	f, ok := extRegistry[ext]
	return f, ok
}

// GetByPath returns a format based on the file's extension.
func GetByPath(path string) (Format, bool) {
	return GetByExtension(filepath.Ext(path))
}

// LoadRecords loads all records from a file.
func LoadRecords(path string) ([]Record, error) {
	f, ok := GetByPath(path)
	if !ok {
		return nil, errors.Errorf("unsupported format for file: %s", path)
	}

	reader := f.Reader()
	if err := reader.Open(path); err != nil {
		return nil, err
	}
	defer reader.Close()

	records, err := reader.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "read records from %s", path)
	}
	return records, nil
}

// columnOrder returns the keys of record, the preferred columns first and
// any remaining keys sorted after them.
func columnOrder(record Record, preferred []string) []string {
	cols := make([]string, 0, len(record))
	seen := make(map[string]bool, len(record))
	for _, c := range preferred {
		if _, ok := record[c]; ok && !seen[c] {
			cols = append(cols, c)
			seen[c] = true
		}
	}
	var rest []string
	for k := range record {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

func copyRecord(record Record) Record {
	out := make(Record, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}
