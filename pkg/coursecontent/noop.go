package coursecontent

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// ContentCreated does nothing and returns nil
func (n *NoopEventSink) ContentCreated(ctx context.Context, path ContentPath, doc *ContentDocument) error {
	return nil
}

// ContentUpdated does nothing and returns nil
func (n *NoopEventSink) ContentUpdated(ctx context.Context, path ContentPath, doc *ContentDocument) error {
	return nil
}

// ContentDeleted does nothing and returns nil
func (n *NoopEventSink) ContentDeleted(ctx context.Context, path ContentPath, id string) error {
	return nil
}

// LoggingEventSink writes one structured log line per event.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates an event sink logging to logger, or to the
// default logger when nil.
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

func (l *LoggingEventSink) ContentCreated(ctx context.Context, path ContentPath, doc *ContentDocument) error {
	l.logger.InfoContext(ctx, "Content created",
		"path", path.String(),
		"content_id", doc.ID,
		"content_type", string(doc.ContentType),
		"content_no", doc.ContentNo,
		"items", len(doc.ContentData))
	return nil
}

func (l *LoggingEventSink) ContentUpdated(ctx context.Context, path ContentPath, doc *ContentDocument) error {
	l.logger.InfoContext(ctx, "Content updated",
		"path", path.String(),
		"content_id", doc.ID,
		"items", len(doc.ContentData))
	return nil
}

func (l *LoggingEventSink) ContentDeleted(ctx context.Context, path ContentPath, id string) error {
	l.logger.InfoContext(ctx, "Content deleted", "path", path.String(), "content_id", id)
	return nil
}
