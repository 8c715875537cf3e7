package exporting

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

type writerOptions struct {
	name    string
	columns []string
	ctx     context.Context
}

// WriterOption configures a Writer.
type WriterOption func(*writerOptions)

// WithName overrides the name a writer reports in logs and errors.
func WithName(name string) WriterOption {
	return func(o *writerOptions) {
		o.name = name
	}
}

// WithColumns sets the preferred column order for tabular formats.
// Columns not listed follow in sorted order.
func WithColumns(columns []string) WriterOption {
	return func(o *writerOptions) {
		o.columns = columns
	}
}

// WithContext sets the context passed to injected clients.
func WithContext(ctx context.Context) WriterOption {
	return func(o *writerOptions) {
		o.ctx = ctx
	}
}

func applyOptions(defaultName string, opts []WriterOption) writerOptions {
	o := writerOptions{name: defaultName, ctx: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewExporter creates a file writer for the given path and format name.
// An empty format is derived from the path extension.
func NewExporter(path, format string, opts ...WriterOption) (Writer, error) {
	var f Format
	var ok bool
	if format == "" {
		f, ok = GetByPath(path)
	} else {
		f, ok = Get(format)
	}
	if !ok {
		return nil, errors.Errorf("unsupported format %q for %s", format, path)
	}
	return f.Open(path, opts...)
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	return nil
}
