package logging

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Leveled adapts a logrus entry to the key/value logger interface used by
// retrying HTTP clients.
type Leveled struct {
	Entry *logrus.Entry
}

func (l Leveled) Error(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Error(msg)
}

func (l Leveled) Warn(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Warn(msg)
}

func (l Leveled) Info(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l Leveled) Debug(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l Leveled) with(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.Entry.WithFields(fields)
}
