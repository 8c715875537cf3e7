// Package probing reads small kernel-provided text files under /proc and /sys.
package probing

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// File reads a file and returns its content.
func File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "read %s", path)
	}
	return string(data), nil
}

// FileInt reads a file and parses it as int64
func FileInt(path string) (int64, error) {
	v, err := File(path)
	if err != nil {
		return 0, err
	}
	return ParseInt64(v)
}

// FileLines reads a file into lines
func FileLines(path string) ([]string, error) {
	v, err := File(path)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimRight(v, "\n"), "\n"), nil
}

// FileKV reads a key-value file like /proc/meminfo
func FileKV(path, sep string) (map[string]string, error) {
	lines, err := FileLines(path)
	if err != nil {
		return nil, err
	}
	kv := make(map[string]string, len(lines))
	for _, line := range lines {
		idx := strings.Index(line, sep)
		if idx == -1 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+len(sep):])
		kv[key] = val
	}
	return kv, nil
}

// ParseInt64 parses a base 10 integer, ignoring surrounding whitespace.
func ParseInt64(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse int %q", s)
	}
	return v, nil
}

// ParseFloat64 parses a float, ignoring surrounding whitespace.
func ParseFloat64(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse float %q", s)
	}
	return v, nil
}
