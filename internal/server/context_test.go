package server

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-kubeops/internal/logging"
)

func TestNewServerContext_RequiresClient(t *testing.T) {
	_, err := NewServerContext(context.Background())
	assert.ErrorIs(t, err, ErrMissingK8sClient)
}

func TestNewServerContext_Defaults(t *testing.T) {
	sc, err := NewServerContext(context.Background(), WithK8sClient(&stubClient{}))
	require.NoError(t, err)

	cfg := sc.Config()
	assert.Equal(t, "mcp-kubeops", cfg.ServerName)
	assert.Equal(t, "default", cfg.DefaultNamespace)
	assert.False(t, cfg.NonDestructiveMode)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, []string{"get", "list", "logs"}, cfg.AllowedOperations)
	assert.NotNil(t, sc.Logger())
	assert.NotNil(t, sc.ToolStats())
	assert.Nil(t, sc.InstrumentationProvider())
	assert.Nil(t, sc.Metrics())
	assert.False(t, sc.InClusterMode())
}

func TestNewServerContext_OptionErrors(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want error
	}{
		{name: "nil client", opt: WithK8sClient(nil), want: ErrMissingK8sClient},
		{name: "nil logger", opt: WithLogger(nil), want: ErrMissingLogger},
		{name: "nil config", opt: WithConfig(nil), want: ErrMissingConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewServerContext(context.Background(), WithK8sClient(&stubClient{}), tt.opt)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewServerContext_Options(t *testing.T) {
	logger := logging.NewSlogAdapter(nil)
	sc, err := NewServerContext(context.Background(),
		WithK8sClient(&stubClient{}),
		WithLogger(logger),
		WithDefaultNamespace("apps"),
		WithNonDestructiveMode(true),
		WithDryRun(true),
		WithInClusterMode(true),
		WithAllowedOperations([]string{"scale"}),
	)
	require.NoError(t, err)

	cfg := sc.Config()
	assert.Equal(t, "mcp-kubeops", cfg.ServerName)
	assert.Equal(t, "apps", cfg.DefaultNamespace)
	assert.True(t, cfg.NonDestructiveMode)
	assert.True(t, cfg.DryRun)
	assert.True(t, sc.InClusterMode())
	assert.Equal(t, []string{"scale"}, cfg.AllowedOperations)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Same(t, logger, sc.Logger())
}

func TestWithConfig_Clones(t *testing.T) {
	cfg := NewDefaultConfig()
	sc, err := NewServerContext(context.Background(), WithK8sClient(&stubClient{}), WithConfig(cfg))
	require.NoError(t, err)

	cfg.AllowedOperations[0] = "delete"
	cfg.ServerName = "changed"

	assert.Equal(t, "get", sc.Config().AllowedOperations[0])
	assert.Equal(t, "mcp-kubeops", sc.Config().ServerName)
}

func TestConfigClone_Nil(t *testing.T) {
	var cfg *Config
	assert.Nil(t, cfg.Clone())
}

func TestServerContext_Shutdown(t *testing.T) {
	sc, err := NewServerContext(context.Background(), WithK8sClient(&stubClient{}))
	require.NoError(t, err)

	assert.False(t, sc.IsShutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())

	// A second shutdown is a no-op.
	require.NoError(t, sc.Shutdown())
}

func TestServerContext_ParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	sc, err := NewServerContext(parent, WithK8sClient(&stubClient{}))
	require.NoError(t, err)

	cancel()
	<-sc.Context().Done()
}

func TestToolStats(t *testing.T) {
	stats := NewToolStats()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stats.RecordCall(i%5 == 0)
			if i%10 == 0 {
				stats.RecordRefusal()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, ToolStatsSnapshot{Calls: 50, Failures: 10, Refusals: 5}, stats.Snapshot())
}
