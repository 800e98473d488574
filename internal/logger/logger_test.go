package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, slog.LevelInfo)
	log.Info("alerts: alert sent", Scope("alerts"), Error(errors.New("boom")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "alerts: alert sent", rec["msg"])
	assert.Equal(t, "alerts", rec["scope"])
	assert.Equal(t, "boom", rec["err"])
}

func TestLogger_FileAndLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log", "hostwatch.log")
	l, err := New("warn", path)
	require.NoError(t, err)
	defer l.Close()

	assert.False(t, l.Enabled(context.Background(), slog.LevelInfo))
	l.Warn("first")

	require.NoError(t, l.SetLevel("debug"))
	assert.True(t, l.Enabled(context.Background(), slog.LevelDebug))
	l.Debug("second")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"first"`)
	assert.Contains(t, string(data), `"msg":"second"`)

	assert.Error(t, l.SetLevel("loud"))
}

func TestNew_UnknownLevel(t *testing.T) {
	_, err := New("chatty", "")
	assert.Error(t, err)
}
