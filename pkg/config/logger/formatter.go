package logger

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ComponentFormatter prefixes the message with the 'component' field for
// nicer text output.
type ComponentFormatter struct {
	Parent logrus.Formatter
}

// Format implements logrus.Formatter
func (f *ComponentFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if c, ok := entry.Data["component"].(string); ok {
		entry.Message = fmt.Sprintf("[%-10s] %s", c, entry.Message)
	}
	return f.Parent.Format(entry)
}
