package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/chiplettrace/internal/app"
	"github.com/vk/chiplettrace/internal/placement/hclload"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// Root is the temporary directory the input files were written to.
	Root      string
	LogOutput string
	Report    string
	Err       error
}

// ConfigOption adjusts the app configuration before the run. root is the
// temporary directory holding the test files.
type ConfigOption func(cfg *app.Config, root string)

// WithStrict makes a deadlock verdict fail the run.
func WithStrict() ConfigOption {
	return func(cfg *app.Config, _ string) { cfg.Strict = true }
}

// WithMesh overrides the mesh declared by the placement.
func WithMesh(width, height int) ConfigOption {
	return func(cfg *app.Config, _ string) {
		cfg.MeshWidth = width
		cfg.MeshHeight = height
	}
}

// WithOutFile writes the report to name inside the test directory.
func WithOutFile(name string) ConfigOption {
	return func(cfg *app.Config, root string) { cfg.OutPath = filepath.Join(root, name) }
}

// WithCheckReport verifies the report stored at name instead of generating one.
func WithCheckReport(name string) ConfigOption {
	return func(cfg *app.Config, root string) {
		cfg.PlacementPath = ""
		cfg.CheckReportPath = filepath.Join(root, name)
	}
}

// RunIntegrationTest provides a standardized harness for running integration
// tests using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, opts ...ConfigOption) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, opts...)
}

// RunIntegrationTestWithContext writes files into a temporary directory, runs
// the app against its "placement" subdirectory and captures logs and report.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, opts ...ConfigOption) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	placementDir := filepath.Join(tmpDir, "placement")
	require.NoError(t, os.Mkdir(placementDir, 0o755))

	// Paths are relative to the temporary root, e.g. "placement/main.hcl".
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	cfg := app.Config{
		PlacementPath: placementDir,
		LogLevel:      "debug",
		LogFormat:     "text",
	}
	for _, opt := range opts {
		opt(&cfg, tmpDir)
	}

	logBuffer := &SafeBuffer{}
	reportBuffer := &SafeBuffer{}
	result := &HarnessResult{Root: tmpDir}

	t.Cleanup(func() {
		if os.Getenv("CHIPLETTRACE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	validated, err := app.NewConfig(cfg)
	if err != nil {
		result.Err = err
		return result
	}

	testApp := app.NewApp(reportBuffer, logBuffer, validated, hclload.NewLoader())
	result.Err = testApp.Run(ctx)
	result.LogOutput = logBuffer.String()
	result.Report = reportBuffer.String()
	return result
}
