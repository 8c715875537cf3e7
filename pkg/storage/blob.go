// Package storage stores metric records as documents in a blob store.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/PowerDNS/simpleblob"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"PipelineMonitor/pkg/exporting"
	"PipelineMonitor/pkg/metrics"

	// Register storage backends
	_ "github.com/PowerDNS/simpleblob/backends/fs"
	_ "github.com/PowerDNS/simpleblob/backends/memory"
)

const (
	// Separator joins the parts of a document name.
	Separator = "__"

	jsonExt = ".json"
	gzExt   = ".gz"

	unknownPipeline = "unknown"
)

// ErrInvalidPrefix is returned for a prefix that would not give a flat
// document name.
var ErrInvalidPrefix = errors.New("prefix must not contain a path separator")

// CheckPrefix validates a document name prefix. Names are flat, since the
// fs backend rejects any name containing a path separator.
func CheckPrefix(prefix string) error {
	if strings.ContainsAny(prefix, `/\`) {
		return errors.Wrapf(ErrInvalidPrefix, "prefix %q", prefix)
	}
	return nil
}

// Options configures a BlobStore.
type Options struct {
	// Prefix is prepended to every document name.
	Prefix string
	// Compress gzips each document.
	Compress bool
}

// BlobStore inserts each record as one JSON document. It satisfies
// exporting.Inserter.
type BlobStore struct {
	st   simpleblob.Interface
	opt  Options
	l    logrus.FieldLogger
	now  func() time.Time
	uuid func() string
}

// New wraps st. A nil logger uses the standard logger.
func New(st simpleblob.Interface, opt Options, logger logrus.FieldLogger) *BlobStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &BlobStore{
		st:   st,
		opt:  opt,
		l:    logger.WithField("component", "blobstore"),
		now:  time.Now,
		uuid: uuid.NewString,
	}
}

// Open creates the simpleblob backend named by typ ("fs", "memory", ...)
// and wraps it.
func Open(ctx context.Context, typ string, options map[string]interface{}, opt Options, logger logrus.FieldLogger) (*BlobStore, error) {
	if err := CheckPrefix(opt.Prefix); err != nil {
		return nil, err
	}
	st, err := simpleblob.GetBackend(ctx, typ, options)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s storage", typ)
	}
	return New(st, opt, logger), nil
}

// Insert stores record under a new document name.
func (b *BlobStore) Insert(ctx context.Context, record exporting.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}
	if b.opt.Compress {
		if data, err = compress(data); err != nil {
			return err
		}
	}

	name := b.name(record)
	if err := b.st.Store(ctx, name, data); err != nil {
		return errors.Wrapf(err, "store %s", name)
	}
	b.l.WithField("name", name).WithField("size", len(data)).Debug("Stored record")
	return nil
}

// name returns <prefix><execution_date>__<pipeline_id>__<uuid>.json[.gz].
func (b *BlobStore) name(record exporting.Record) string {
	date, _ := record[metrics.FieldExecutionDate].(string)
	if date == "" {
		date = b.now().UTC().Format("2006-01-02")
	}
	pipeline, _ := record[metrics.FieldPipelineID].(string)
	if pipeline == "" {
		pipeline = unknownPipeline
	}

	var sb strings.Builder
	sb.WriteString(b.opt.Prefix)
	sb.WriteString(sanitize(date))
	sb.WriteString(Separator)
	sb.WriteString(sanitize(pipeline))
	sb.WriteString(Separator)
	sb.WriteString(b.uuid())
	sb.WriteString(jsonExt)
	if b.opt.Compress {
		sb.WriteString(gzExt)
	}
	return sb.String()
}

// List returns the names of stored documents under the prefix.
func (b *BlobStore) List(ctx context.Context) ([]string, error) {
	ls, err := b.st.List(ctx, b.opt.Prefix)
	if err != nil {
		return nil, errors.Wrap(err, "list records")
	}
	var names []string
	for _, blob := range ls {
		if strings.HasSuffix(blob.Name, jsonExt) || strings.HasSuffix(blob.Name, jsonExt+gzExt) {
			names = append(names, blob.Name)
		}
	}
	return names, nil
}

// Load reads and decodes a stored document, decompressing it when the
// name ends in .gz.
func (b *BlobStore) Load(ctx context.Context, name string) (exporting.Record, error) {
	data, err := b.st.Load(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", name)
	}
	if strings.HasSuffix(name, gzExt) {
		if data, err = decompress(data); err != nil {
			return nil, errors.Wrapf(err, "decompress %s", name)
		}
	}
	var record exporting.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.Wrapf(err, "decode %s", name)
	}
	return record, nil
}

func compress(data []byte) ([]byte, error) {
	out := bytes.NewBuffer(make([]byte, 0, len(data)/2))
	gw, err := gzip.NewWriterLevel(out, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := gw.Write(data); err != nil {
		return nil, errors.Wrap(err, "compress record")
	}
	if err := gw.Close(); err != nil {
		return nil, errors.Wrap(err, "compress record")
	}
	return out.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	g, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(g)
	if err != nil {
		return nil, err
	}
	if err := g.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

// sanitize keeps name parts to characters every backend accepts.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, Separator, "_")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, s)
}
