package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Audit log messages
const (
	AuditMsgSucceeded = "tool_executed"
	AuditMsgFailed    = "tool_failed"
)

// Invocation is the audit record of one tool call. Payment tools move
// money, so every call gets a record whether or not it succeeded.
type Invocation struct {
	// ID is unique per call and is logged next to the trace ID
	ID   string
	Tool string

	// Phone is the customer MSISDN (PII); masked unless the logger allows it
	Phone string

	// Reference is the account reference, QR reference or workflow ID
	Reference string

	Service   string
	Operation string

	Started  time.Time
	Duration time.Duration
	Failed   bool
	Error    string

	TraceID string
	SpanID  string
}

// StartInvocation opens a record for tool and links it to the span in ctx.
func StartInvocation(ctx context.Context, tool string) *Invocation {
	inv := &Invocation{
		ID:      uuid.NewString(),
		Tool:    tool,
		Started: time.Now(),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		inv.TraceID = sc.TraceID().String()
		inv.SpanID = sc.SpanID().String()
	}
	return inv
}

// Finish stamps the duration. A call fails when err is set or when the
// handler returned an error result (failed).
func (inv *Invocation) Finish(err error, failed bool) {
	inv.Duration = time.Since(inv.Started)
	inv.Failed = failed || err != nil
	if err != nil {
		inv.Error = err.Error()
	}
}

// Status is the metric label for the call outcome.
func (inv *Invocation) Status() string {
	if inv.Failed {
		return StatusError
	}
	return StatusSuccess
}

// AuditLogger writes one record per tool call. A nil *AuditLogger is a
// valid, silent logger.
type AuditLogger struct {
	logger *slog.Logger
	config AuditLoggingConfig
}

// NewAuditLogger creates an audit logger; a nil logger uses slog.Default.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger.With("component", "audit"), config: config}
}

// Log writes inv at INFO, or WARN when the call failed.
func (al *AuditLogger) Log(ctx context.Context, inv *Invocation) {
	if al == nil || !al.config.Enabled {
		return
	}

	level, msg := slog.LevelInfo, AuditMsgSucceeded
	if inv.Failed {
		level, msg = slog.LevelWarn, AuditMsgFailed
	}
	al.logger.LogAttrs(ctx, level, msg, al.attrs(inv)...)
}

func (al *AuditLogger) attrs(inv *Invocation) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("invocation_id", inv.ID),
		slog.String("tool", inv.Tool),
		slog.Duration("duration", inv.Duration),
		slog.Bool("success", !inv.Failed),
	}

	optional := []struct{ key, value string }{
		{"phone", al.phone(inv.Phone)},
		{"reference", inv.Reference},
		{"service", inv.Service},
		{"operation", inv.Operation},
		{"trace_id", inv.TraceID},
		{"span_id", inv.SpanID},
		{"error", inv.Error},
	}
	for _, o := range optional {
		if o.value != "" {
			attrs = append(attrs, slog.String(o.key, o.value))
		}
	}
	return attrs
}

func (al *AuditLogger) phone(phone string) string {
	if al.config.IncludePII {
		return phone
	}
	return MaskPhone(phone)
}
