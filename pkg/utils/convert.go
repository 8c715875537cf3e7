// Package utils converts loosely typed values, such as decoded JSON or CSV
// cells, into the concrete types stored in a metric record.
package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToInt64Ok converts a value to int64, returning success status.
// Floats are only accepted when they hold a whole number.
func ToInt64Ok(v interface{}) (int64, bool) {
	if v == nil {
		return 0, false
	}

	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		if n == float32(int64(n)) {
			return int64(n), true
		}
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

// ToString converts a value to string.
func ToString(v interface{}) string {
	if v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToStringSliceOk converts a list value to []string. A string is accepted
// when it holds a JSON array, which is how list columns are stored in
// delimited and columnar files.
func ToStringSliceOk(v interface{}) ([]string, bool) {
	switch l := v.(type) {
	case nil:
		return nil, false
	case []string:
		out := make([]string, len(l))
		copy(out, l)
		return out, true
	case []interface{}:
		out := make([]string, 0, len(l))
		for _, e := range l {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	case string:
		trimmed := strings.TrimSpace(l)
		if !strings.HasPrefix(trimmed, "[") {
			return nil, false
		}
		var out []string
		if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
			return nil, false
		}
		return out, true
	}
	return nil, false
}

// FormatValue converts any value to a string representation for CSV/TSV output.
// Lists and maps are JSON encoded so they survive a round trip.
func FormatValue(v interface{}) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	case uint64:
		return strconv.FormatUint(val, 10)
	case json.Number:
		return val.String()
	case []string, []interface{}, map[string]interface{}, map[string]string:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}
