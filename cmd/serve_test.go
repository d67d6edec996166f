package cmd

import (
	"context"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotmatch/slotmatch/internal/config"
	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/server"
	"github.com/slotmatch/slotmatch/internal/store/memory"
)

func TestLoadMetricsEnvVars(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		flags       map[string]string
		wantEnabled bool
		wantAddr    string
	}{
		{
			name:        "defaults",
			wantEnabled: true,
			wantAddr:    ":9090",
		},
		{
			name:        "env disables and moves the server",
			env:         map[string]string{"METRICS_ENABLED": "false", "METRICS_ADDR": ":9191"},
			wantEnabled: false,
			wantAddr:    ":9191",
		},
		{
			name:        "flags win over env",
			env:         map[string]string{"METRICS_ENABLED": "false", "METRICS_ADDR": ":9191"},
			flags:       map[string]string{"metrics-enabled": "true", "metrics-addr": ":9292"},
			wantEnabled: true,
			wantAddr:    ":9292",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("METRICS_ENABLED", "")
			t.Setenv("METRICS_ADDR", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cmd := newServeCmd()
			for k, v := range tt.flags {
				require.NoError(t, cmd.Flags().Set(k, v))
			}
			metrics := MetricsConfig{}
			metrics.Enabled, _ = cmd.Flags().GetBool("metrics-enabled")
			metrics.Addr, _ = cmd.Flags().GetString("metrics-addr")

			loadMetricsEnvVars(cmd, &metrics)
			assert.Equal(t, tt.wantEnabled, metrics.Enabled)
			assert.Equal(t, tt.wantAddr, metrics.Addr)
		})
	}
}

func TestRunServe_UnsupportedTransport(t *testing.T) {
	err := runServe(config.FromEnv(), ServeConfig{Transport: "sse"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport type: sse")
}

func TestRegisterAllTools(t *testing.T) {
	tests := []struct {
		name      string
		readOnly  bool
		wantTools int
	}{
		{name: "read-write", readOnly: false, wantTools: 12},
		{name: "read-only", readOnly: true, wantTools: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := server.NewServerContext(context.Background(), server.Options{Store: memory.New()})
			require.NoError(t, err)
			defer func() { _ = sc.Shutdown() }()

			s := mcpserver.NewMCPServer("test-server", "1.0.0",
				mcpserver.WithToolCapabilities(true),
				mcpserver.WithResourceCapabilities(false, false),
			)
			require.NoError(t, registerAllTools(s, sc, tt.readOnly))
			assert.Len(t, s.ListTools(), tt.wantTools)
		})
	}
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := now
	st := memory.New(memory.WithClock(func() time.Time { return clock }))

	clock = now.Add(-8 * 24 * time.Hour)
	old, err := st.CreateEvent(ctx, "Old", "", 60)
	require.NoError(t, err)
	_, err = st.ReplaceWindows(ctx, old.ID, []schedule.WindowInput{{Date: "2025-03-03", StartTime: "09:00", EndTime: "10:00"}})
	require.NoError(t, err)

	clock = now.Add(-2 * 24 * time.Hour)
	recent, err := st.CreateEvent(ctx, "Recent", "", 30)
	require.NoError(t, err)

	n, err := sweepExpired(ctx, st, now, 7*24*time.Hour, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = st.GetEvent(ctx, old.ID)
	assert.Error(t, err)
	_, err = st.GetEvent(ctx, recent.ID)
	assert.NoError(t, err)

	n, err = sweepExpired(ctx, st, now, 7*24*time.Hour, discardLogger())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStartRetentionSweeper_InvalidSchedule(t *testing.T) {
	_, err := startRetentionSweeper(context.Background(), memory.New(), "every now and then", time.Hour, time.UTC, discardLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid retention schedule")
}

func TestStartRetentionSweeper(t *testing.T) {
	c, err := startRetentionSweeper(context.Background(), memory.New(), DefaultRetentionSchedule, time.Hour, time.UTC, discardLogger())
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	<-c.Stop().Done()
}
