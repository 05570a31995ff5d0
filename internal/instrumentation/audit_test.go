package instrumentation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	testPhone       = "254712345678"
	testMaskedPhone = "2547*****678"
	testReference   = "INV-001"
)

func bufferedAudit(config AuditLoggingConfig) (*AuditLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewAuditLogger(slog.New(slog.NewTextHandler(&buf, nil)), config), &buf
}

func TestStartInvocation(t *testing.T) {
	inv := StartInvocation(context.Background(), "stk_push")

	assert.NotEmpty(t, inv.ID)
	assert.NotEqual(t, inv.ID, StartInvocation(context.Background(), "stk_push").ID)
	assert.Equal(t, "stk_push", inv.Tool)
	assert.False(t, inv.Started.IsZero())
	assert.Empty(t, inv.TraceID)
	assert.Empty(t, inv.SpanID)
}

func TestStartInvocation_LinksSpan(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "tool.stk_push")
	defer span.End()

	inv := StartInvocation(ctx, "stk_push")
	assert.Equal(t, span.SpanContext().TraceID().String(), inv.TraceID)
	assert.Equal(t, span.SpanContext().SpanID().String(), inv.SpanID)
}

func TestInvocation_Finish(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		failed     bool
		wantStatus string
		wantError  string
	}{
		{"success", nil, false, StatusSuccess, ""},
		{"error result", nil, true, StatusError, ""},
		{"handler error", errors.New("daraja unavailable"), false, StatusError, "daraja unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := StartInvocation(context.Background(), "stk_push")
			inv.Finish(tt.err, tt.failed)

			assert.Equal(t, tt.wantStatus, inv.Status())
			assert.Equal(t, tt.wantError, inv.Error)
		})
	}
}

func TestAuditLogger_Log(t *testing.T) {
	tests := []struct {
		name       string
		includePII bool
		failed     bool
		wantPhone  string
		wantMsg    string
		wantLevel  string
	}{
		{"masked success", false, false, testMaskedPhone, AuditMsgSucceeded, "level=INFO"},
		{"masked failure", false, true, testMaskedPhone, AuditMsgFailed, "level=WARN"},
		{"full phone", true, false, testPhone, AuditMsgSucceeded, "level=INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			al, buf := bufferedAudit(AuditLoggingConfig{Enabled: true, IncludePII: tt.includePII})

			inv := StartInvocation(context.Background(), "stk_push")
			inv.Phone = testPhone
			inv.Reference = testReference
			inv.Service = ServiceDaraja
			inv.Operation = "stk_push"
			inv.Finish(nil, tt.failed)
			al.Log(context.Background(), inv)

			out := buf.String()
			assert.Contains(t, out, "msg="+tt.wantMsg)
			assert.Contains(t, out, tt.wantLevel)
			assert.Contains(t, out, "phone="+tt.wantPhone)
			assert.Contains(t, out, "reference="+testReference)
			assert.Contains(t, out, "component=audit")
			assert.Contains(t, out, "invocation_id="+inv.ID)
			if !tt.includePII {
				assert.NotContains(t, out, testPhone)
			}
		})
	}
}

func TestAuditLogger_OmitsEmptyFields(t *testing.T) {
	al, buf := bufferedAudit(AuditLoggingConfig{Enabled: true})

	inv := StartInvocation(context.Background(), "list_workflows")
	inv.Finish(nil, false)
	al.Log(context.Background(), inv)

	out := buf.String()
	require.NotEmpty(t, out)
	for _, key := range []string{"phone=", "reference=", "trace_id=", "error="} {
		assert.False(t, strings.Contains(out, key), "unexpected %s in %q", key, out)
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	al, buf := bufferedAudit(AuditLoggingConfig{Enabled: false})
	al.Log(context.Background(), StartInvocation(context.Background(), "stk_push"))
	assert.Empty(t, buf.String())

	var nilLogger *AuditLogger
	assert.NotPanics(t, func() {
		nilLogger.Log(context.Background(), StartInvocation(context.Background(), "stk_push"))
	})
}
