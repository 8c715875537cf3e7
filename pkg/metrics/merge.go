package metrics

import (
	"reflect"
	"strings"
	"time"

	"github.com/pkg/errors"

	"PipelineMonitor/pkg/utils"
)

var (
	// ErrUnknownField is returned when an update names a field outside the schema.
	ErrUnknownField = errors.New("unknown metric field")
	// ErrInvalidValue is returned when a value cannot be stored in its field.
	ErrInvalidValue = errors.New("invalid metric field value")
)

// supplied returns the non-absent values of a Fields update, keyed by field
// name. Nil pointers and empty slices are skipped.
func (f Fields) supplied() map[string]interface{} {
	result := make(map[string]interface{})
	v := reflect.ValueOf(f)
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		name := strings.Split(field.Tag.Get("json"), ",")[0]
		if name == "" || name == "-" {
			continue
		}

		switch fieldVal.Kind() {
		case reflect.Ptr:
			if fieldVal.IsNil() {
				continue
			}
			result[name] = fieldVal.Elem().Interface()
		case reflect.Slice:
			if fieldVal.Len() == 0 {
				continue
			}
			result[name] = fieldVal.Interface()
		default:
			result[name] = fieldVal.Interface()
		}
	}
	return result
}

// coerce converts a loosely typed value into the canonical representation
// of the field. A nil value stays nil.
func coerce(f Field, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	invalid := func() error {
		return errors.Wrapf(ErrInvalidValue, "%s: cannot use %T as %s", f.Name, v, f.Kind)
	}

	switch f.Kind {
	case KindInt:
		n, ok := utils.ToInt64Ok(v)
		if !ok {
			return nil, invalid()
		}
		return n, nil

	case KindStringList:
		l, ok := utils.ToStringSliceOk(v)
		if !ok {
			return nil, invalid()
		}
		return l, nil

	case KindTime:
		switch ts := v.(type) {
		case time.Time:
			return formatTime(ts), nil
		case *time.Time:
			if ts == nil {
				return nil, nil
			}
			return formatTime(*ts), nil
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(ts))
			if err != nil {
				return nil, errors.Wrapf(ErrInvalidValue, "%s: %v", f.Name, err)
			}
			return formatTime(parsed), nil
		}
		return nil, invalid()

	default:
		switch v.(type) {
		case string, []byte, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			return utils.ToString(v), nil
		}
		return nil, invalid()
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// copyValue returns a value that shares no memory with the stored one.
func copyValue(v interface{}) interface{} {
	if l, ok := v.([]string); ok {
		out := make([]string, len(l))
		copy(out, l)
		return out
	}
	return v
}
