// Package observability defines the logging hooks used across the library.
// Callers that want structured logs plug in their own Logger; everything
// defaults to no-ops.
package observability

import (
	"fmt"
	"io"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type float64Field struct {
	key string
	val float64
}

func (f float64Field) Key() string        { return f.key }
func (f float64Field) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field        { return stringField{key, value} }
func Int(key string, value int) Field       { return intField{key, value} }
func Float64(key string, value float64) Field { return float64Field{key, value} }
func Error(key string, err error) Field     { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// TextLogger writes one line per entry to an io.Writer, key=value style.
// It is meant for command line tools; services plug in their own Logger.
type TextLogger struct {
	W     io.Writer
	Min   Level
	attrs []Field
}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l *TextLogger) log(level Level, name, msg string, fields []Field) {
	if l.W == nil || level < l.Min {
		return
	}
	fmt.Fprintf(l.W, "%s %s", name, msg)
	for _, f := range l.attrs {
		fmt.Fprintf(l.W, " %s=%v", f.Key(), f.Value())
	}
	for _, f := range fields {
		fmt.Fprintf(l.W, " %s=%v", f.Key(), f.Value())
	}
	fmt.Fprintln(l.W)
}

func (l *TextLogger) Debug(msg string, fields ...Field) { l.log(LevelDebug, "DEBUG", msg, fields) }
func (l *TextLogger) Info(msg string, fields ...Field)  { l.log(LevelInfo, "INFO", msg, fields) }
func (l *TextLogger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, "WARN", msg, fields) }
func (l *TextLogger) Error(msg string, fields ...Field) { l.log(LevelError, "ERROR", msg, fields) }

func (l *TextLogger) With(fields ...Field) Logger {
	attrs := append(append([]Field{}, l.attrs...), fields...)
	return &TextLogger{W: l.W, Min: l.Min, attrs: attrs}
}

// Standard metric names emitted by the library.
const (
	MetricRasterTime     = "reader.raster.duration"
	MetricCacheEvictions = "reader.cache.evictions"
	MetricChunkCount     = "reader.chunks.count"
	MetricSearchTime     = "reader.search.duration"
	MetricSearchResults  = "reader.search.results"
	MetricLayoutTime     = "reader.layout.duration"
)
