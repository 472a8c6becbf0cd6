package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"irrigation_panel/internal/config"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	p, err := Setup(context.Background(), config.TracingConfig{ServiceName: "test"})
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NoError(t, p.Shutdown(context.Background()))

	_, span := Tracer().Start(context.Background(), "noop")
	span.End()
}

func TestSetup_WithEndpoint(t *testing.T) {
	p, err := Setup(context.Background(), config.TracingConfig{
		Endpoint:    "127.0.0.1:4318",
		Insecure:    true,
		ServiceName: "test",
	})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// export fails against a cancelled context; shutdown must still return
	_ = p.Shutdown(ctx)
}

func TestShutdown_NilProvider(t *testing.T) {
	var p *Provider
	require.False(t, p.Enabled())
	require.NoError(t, p.Shutdown(context.Background()))
}
