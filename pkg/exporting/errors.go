package exporting

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a sink failure.
type Kind int

const (
	KindIO Kind = iota + 1
	KindSerialization
	KindClient
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindSerialization:
		return "serialization"
	case KindClient:
		return "client"
	default:
		return "unknown"
	}
}

// SinkError is returned by Writer.Write and names the failing sink.
type SinkError struct {
	Sink string
	Kind Kind
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s: %s error: %v", e.Sink, e.Kind, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

func sinkError(sink string, kind Kind, err error, msg string) error {
	return &SinkError{Sink: sink, Kind: kind, Err: errors.Wrap(err, msg)}
}

// IsKind reports whether any SinkError in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var se *SinkError
	if !errors.As(err, &se) {
		return false
	}
	return se.Kind == kind
}
