// Package logging provides the drop engine's internal DEBUG1/DEBUG2
// diagnostics. Its call-site shape — VEventf(ctx, level, format,
// args...) plus context-scoped tags — mirrors the teacher's
// pkg/util/log package (see pkg/sql/catalog/descs/collection.go's
// log.VEventf(ctx, 2, ...) call sites). That package itself is
// catalog-internal to the CockroachDB server binary (file sinks,
// crash reporting, log rotation) and has no meaning once this engine
// is vendored into a different host process, so only the shape is
// re-implemented here, against the real cockroachdb/logtags
// dependency for tag propagation.
package logging

import (
	"context"
	"fmt"
	"os"

	"github.com/cockroachdb/logtags"
)

// Sink receives formatted log lines. A Logger from NewLogger writes to
// StderrSink; SetSink redirects it, and SetSink(nil) discards output.
// The zero value of Logger has no sink and must not be used to log.
type Sink interface {
	Write(line string)
}

type writerSink struct{ w *os.File }

func (s writerSink) Write(line string) { fmt.Fprintln(s.w, line) }

// StderrSink is the default Sink used by NewLogger.
var StderrSink Sink = writerSink{os.Stderr}

type discardSink struct{}

func (discardSink) Write(string) {}

// Logger is a minimal leveled logger scoped to a context. Verbosity
// follows the teacher's V(n)-style convention: VEventf(ctx, 1, ...)
// is spec's DEBUG1, VEventf(ctx, 2, ...) is DEBUG2.
type Logger struct {
	sink    Sink
	verbose int
}

// NewLogger returns a Logger that emits events up to the given
// verbosity level to StderrSink (at 0, only level-0 VEventf calls and
// Noticef are emitted).
func NewLogger(verbosity int) *Logger {
	return &Logger{sink: StderrSink, verbose: verbosity}
}

// SetSink redirects output, primarily for tests.
func (l *Logger) SetSink(s Sink) {
	if s == nil {
		s = discardSink{}
	}
	l.sink = s
}

// WithTags returns a context carrying the given key/value tags, to be
// rendered as a "[k=v,...]" prefix on subsequent log lines, the way
// logtags.WithTags annotates CockroachDB's logging contexts.
func WithTags(ctx context.Context, kv ...interface{}) context.Context {
	buf := &logtags.Buffer{}
	for i := 0; i+1 < len(kv); i += 2 {
		buf = buf.Add(fmt.Sprint(kv[i]), kv[i+1])
	}
	return logtags.WithTags(ctx, buf)
}

func (l *Logger) format(ctx context.Context, format string, args []interface{}) string {
	tags := logtags.FromContext(ctx)
	msg := fmt.Sprintf(format, args...)
	if tags == nil || len(tags.Get()) == 0 {
		return msg
	}
	return fmt.Sprintf("[%s] %s", tags.String(), msg)
}

// VEventf logs a DEBUG-level event if level is within the logger's
// configured verbosity.
func (l *Logger) VEventf(ctx context.Context, level int, format string, args ...interface{}) {
	if l == nil || level > l.verbose {
		return
	}
	l.sink.Write(l.format(ctx, format, args))
}

// Noticef logs a user-facing NOTICE-level message unconditionally.
func (l *Logger) Noticef(ctx context.Context, format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.sink.Write("NOTICE: " + l.format(ctx, format, args))
}
