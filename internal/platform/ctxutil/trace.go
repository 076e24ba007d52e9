package ctxutil

import "context"

type traceKey struct{}

// Trace identifies one request across log lines and spans. ID is the OTel
// trace id when a span is active.
type Trace struct {
	ID        string
	RequestID string
}

func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

func TraceFrom(ctx context.Context) (Trace, bool) {
	t, ok := ctx.Value(traceKey{}).(Trace)
	return t, ok
}

// LogFields returns the non-empty ids as logger key/value pairs.
func (t Trace) LogFields() []any {
	fields := make([]any, 0, 4)
	if t.ID != "" {
		fields = append(fields, "trace_id", t.ID)
	}
	if t.RequestID != "" {
		fields = append(fields, "request_id", t.RequestID)
	}
	return fields
}
