// SPDX-License-Identifier: Apache-2.0

package zerolog

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	loglib "github.com/xataio/ftsearch/pkg/log"
)

// Logger adapts a zerolog logger to the loglib.Logger interface.
type Logger struct {
	zerologger *zerolog.Logger
	fields     loglib.Fields
}

// queries and commands over this size are truncated, the index schema and
// long disjunctions can otherwise flood the output.
const logMaxBytes = 10000

func NewLogger(zl *zerolog.Logger) *Logger {
	return &Logger{
		zerologger: zl,
	}
}

func (l *Logger) Trace(msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Trace(), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Debug(), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) Info(msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Info(), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) Warn(err error, msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Warn().Err(err), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) Error(err error, msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Error().Err(err), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) Panic(msg string, fields ...loglib.Fields) {
	withFields(l.zerologger.Panic(), append(fields, l.fields)...).Msg(msg)
}

func (l *Logger) WithFields(fields loglib.Fields) loglib.Logger {
	return &Logger{
		zerologger: l.zerologger,
		fields:     loglib.MergeFields(l.fields, fields),
	}
}

func withFields(event *zerolog.Event, fieldMaps ...loglib.Fields) *zerolog.Event {
	for _, m := range fieldMaps {
		for key, value := range m {
			switch v := value.(type) {
			case string:
				event = event.Str(key, truncate(v))
			case bool:
				event = event.Bool(key, v)
			case int:
				event = event.Int(key, v)
			case int64:
				event = event.Int64(key, v)
			case float64:
				event = event.Float64(key, v)
			case []byte:
				event = event.Bytes(key, truncateBytes(v))
			case []string:
				event = event.Strs(key, truncateStrs(v))
			case time.Time:
				event = event.Time(key, v)
			case time.Duration:
				event = event.Dur(key, v)
			case error:
				event = event.AnErr(key, v)
			case fmt.Stringer:
				event = event.Stringer(key, v)
			default:
				event = event.Any(key, v)
			}
		}
	}
	return event
}

func truncate(s string) string {
	if len(s) > logMaxBytes {
		return s[:logMaxBytes]
	}
	return s
}

func truncateBytes(b []byte) []byte {
	if len(b) > logMaxBytes {
		return b[:logMaxBytes]
	}
	return b
}

// truncateStrs keeps the leading items of a command until their combined
// size reaches the limit.
func truncateStrs(items []string) []string {
	size := 0
	for i, item := range items {
		if size+len(item) > logMaxBytes {
			out := append([]string(nil), items[:i]...)
			return append(out, item[:logMaxBytes-size])
		}
		size += len(item)
	}
	return items
}
