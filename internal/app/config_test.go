package app

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "placement only", cfg: Config{PlacementPath: "p.hcl"}},
		{name: "report only", cfg: Config{CheckReportPath: "r.txt"}},
		{name: "placement with overrides", cfg: Config{PlacementPath: "p", MeshWidth: 4, MeshHeight: 2, OutPath: "out.txt"}},
		{name: "no input", cfg: Config{}, wantErr: "a placement path or a report to check is required"},
		{name: "both inputs", cfg: Config{PlacementPath: "p", CheckReportPath: "r"}, wantErr: "mutually exclusive"},
		{name: "negative mesh", cfg: Config{PlacementPath: "p", MeshWidth: -1}, wantErr: "must not be negative, got -1x0"},
		{name: "mesh with report", cfg: Config{CheckReportPath: "r", MeshHeight: 2}, wantErr: "mesh overrides apply to placement input only"},
		{name: "out with report", cfg: Config{CheckReportPath: "r", OutPath: "o"}, wantErr: "an output path cannot be used"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.cfg, *got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger("warn", "json", &buf)

	logger.Info("hidden")
	logger.Warn("shown", "chiplet", 3)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"chiplet":3`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}
