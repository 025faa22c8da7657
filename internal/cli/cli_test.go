package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/chiplettrace/internal/app"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		want     *app.Config
		wantExit bool
		wantCode int
		wantMsg  string
	}{
		{
			name: "positional placement",
			args: []string{"net.hcl"},
			want: &app.Config{PlacementPath: "net.hcl", LogFormat: "text", LogLevel: "info"},
		},
		{
			name: "long flag wins over positional",
			args: []string{"-placement", "a", "-strict", "-out", "t.txt", "b"},
			want: &app.Config{PlacementPath: "a", OutPath: "t.txt", Strict: true, LogFormat: "text", LogLevel: "info"},
		},
		{
			name: "shorthand with mesh override",
			args: []string{"-p", "dir", "-mesh-width", "4", "-mesh-height", "2", "-log-level", "DEBUG", "-log-format", "json"},
			want: &app.Config{PlacementPath: "dir", MeshWidth: 4, MeshHeight: 2, LogFormat: "json", LogLevel: "debug"},
		},
		{
			name: "check report",
			args: []string{"-check-report", "trace.txt"},
			want: &app.Config{CheckReportPath: "trace.txt", LogFormat: "text", LogLevel: "info"},
		},
		{name: "no input prints usage", args: nil, wantExit: true},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "unknown flag", args: []string{"-bogus"}, wantCode: 2, wantMsg: "flag provided but not defined: -bogus"},
		{name: "bad log format", args: []string{"-log-format", "xml", "x"}, wantCode: 2, wantMsg: "invalid log-format"},
		{name: "bad log level", args: []string{"-log-level", "trace", "x"}, wantCode: 2, wantMsg: "invalid log-level"},
		{name: "config validation", args: []string{"-mesh-width", "-2", "x"}, wantCode: 2, wantMsg: "must not be negative"},
		{name: "both inputs", args: []string{"-check-report", "r", "x"}, wantCode: 2, wantMsg: "mutually exclusive"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			cfg, shouldExit, err := Parse(tc.args, &out)

			if tc.wantCode != 0 {
				require.Error(t, err)
				exitErr, ok := err.(*ExitError)
				require.True(t, ok, "expected *ExitError, got %T", err)
				assert.Equal(t, tc.wantCode, exitErr.Code)
				assert.Contains(t, exitErr.Message, tc.wantMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantExit, shouldExit)
			if tc.wantExit {
				assert.Contains(t, out.String(), "Usage:")
				return
			}
			assert.Equal(t, tc.want, cfg)
		})
	}
}
