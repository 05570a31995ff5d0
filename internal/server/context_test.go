package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/daraja-mcp/internal/credential"
	"github.com/teemow/daraja-mcp/internal/documents"
	"github.com/teemow/daraja-mcp/internal/instrumentation"
)

func startedManager(t *testing.T, token string) *credential.Manager {
	t.Helper()
	m := credential.NewManager(credential.FetcherFunc(func(context.Context) (*credential.Credential, error) {
		return &credential.Credential{Token: token, ExpiresIn: 3599}, nil
	}), credential.Config{})
	require.NoError(t, m.Start(context.Background()))
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m
}

func newTestServerContext(t *testing.T) *ServerContext {
	t.Helper()
	sc, err := NewServerContext(context.Background(), startedManager(t, "T1"), Clients{}, nil)
	require.NoError(t, err)
	return sc
}

func TestNewServerContext_RequiresManager(t *testing.T) {
	_, err := NewServerContext(context.Background(), nil, Clients{}, nil)
	assert.Error(t, err)
}

func TestServerContext_CurrentToken(t *testing.T) {
	sc := newTestServerContext(t)
	assert.Equal(t, "T1", sc.CurrentToken())

	st := sc.CredentialStatus()
	assert.Equal(t, "ACTIVE", st.State)
	assert.True(t, st.Ready)
}

func TestServerContext_MetricsAndAudit(t *testing.T) {
	sc := newTestServerContext(t)
	assert.Nil(t, sc.Metrics())
	assert.Nil(t, sc.AuditLogger())

	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{Enabled: false})
	require.NoError(t, err)
	sc.SetMetrics(provider.Metrics())
	sc.SetAuditLogger(instrumentation.NewAuditLogger(nil, instrumentation.AuditLoggingConfig{Enabled: true}))

	assert.NotNil(t, sc.Metrics())
	assert.NotNil(t, sc.AuditLogger())
}

func TestServerContext_Shutdown(t *testing.T) {
	m := startedManager(t, "T1")
	sc, err := NewServerContext(context.Background(), m, Clients{
		Documents: documents.NewStore(documents.Config{URI: "mongodb://localhost"}),
	}, nil)
	require.NoError(t, err)

	assert.False(t, sc.IsShutdown())
	require.NoError(t, sc.Shutdown(context.Background()))
	assert.True(t, sc.IsShutdown())
	assert.Equal(t, credential.StateStopped, m.State())
	assert.True(t, errors.Is(sc.Context().Err(), context.Canceled))

	// token stays readable after shutdown
	assert.Equal(t, "T1", sc.CurrentToken())

	require.NoError(t, sc.Shutdown(context.Background()))
}
