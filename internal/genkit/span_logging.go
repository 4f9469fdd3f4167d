package genkit

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
)

// maxAttrLength bounds attribute values logged unless verbose is set, so
// prompts and inline images stay out of the log.
const maxAttrLength = 256

type loggingSpanProcessor struct {
	verbose bool
	logger  *slog.Logger
}

var _ trace.SpanProcessor = (*loggingSpanProcessor)(nil)

func (l *loggingSpanProcessor) OnStart(_ context.Context, s trace.ReadWriteSpan) {
	l.logger.Debug("span start", l.buildArgs(s)...)
}

func (l *loggingSpanProcessor) OnEnd(s trace.ReadOnlySpan) {
	args := append(l.buildArgs(s), slog.Duration("elapsed", s.EndTime().Sub(s.StartTime())))
	if s.Status().Code == codes.Error {
		l.logger.Warn("span failed", append(args, slog.String("status", s.Status().Description))...)
		return
	}
	l.logger.Debug("span end", args...)
}

func (l *loggingSpanProcessor) Shutdown(context.Context) error {
	return nil
}

func (l *loggingSpanProcessor) ForceFlush(context.Context) error {
	return nil
}

func (l *loggingSpanProcessor) buildArgs(s trace.ReadOnlySpan) []any {
	args := []any{
		slog.String("name", s.Name()),
	}
	for _, attr := range s.Attributes() {
		value := attr.Value.Emit()
		if !l.verbose && len(value) > maxAttrLength {
			continue
		}
		args = append(args, slog.String(string(attr.Key), value))
	}

	return args
}
