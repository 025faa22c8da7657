package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/chiplettrace/internal/app"
	"github.com/vk/chiplettrace/internal/testutil"
)

func TestApp_CheckReportFindsDeadlock(t *testing.T) {
	files := map[string]string{"reports/deadlock.txt": testutil.DeadlockReport}

	result := testutil.RunIntegrationTest(t, files, testutil.WithCheckReport("reports/deadlock.txt"))

	// Without strict mode the verdict is reported but does not fail the run.
	require.NoError(t, result.Err)
	assert.Empty(t, result.Report)
	assert.Contains(t, result.LogOutput, "[Deadlock] Unable to match any operation at head:\n")
	assert.Contains(t, result.LogOutput, "  Chip 0: SEND peer=1 tid=0\n")
	assert.Contains(t, result.LogOutput, "  Chip 1: SEND peer=0 tid=1\n")
	assert.Contains(t, result.LogOutput, "  Circular wait: 0 -> 1 -> 0\n")
	testutil.AssertLogged(t, result, "Trace may contain deadlocks.")
}

func TestApp_StrictDeadlockFailsRun(t *testing.T) {
	files := map[string]string{"reports/deadlock.txt": testutil.DeadlockReport}

	result := testutil.RunIntegrationTest(t, files,
		testutil.WithCheckReport("reports/deadlock.txt"),
		testutil.WithStrict(),
	)

	require.ErrorIs(t, result.Err, app.ErrDeadlock)
}

func TestApp_CheckReportAcceptsGeneratedReport(t *testing.T) {
	generated := testutil.RunIntegrationTest(t, map[string]string{"placement/main.hcl": testutil.PipelineHCL})
	require.NoError(t, generated.Err)

	result := testutil.RunIntegrationTest(t,
		map[string]string{"trace.txt": generated.Report},
		testutil.WithCheckReport("trace.txt"),
		testutil.WithStrict(),
	)

	require.NoError(t, result.Err)
	testutil.AssertLogged(t, result, "Report loaded.")
	testutil.AssertLogged(t, result, "Trace verified.")
}

func TestApp_CheckReportLogsUnmatchedTransfers(t *testing.T) {
	orphan := `# Mesh: 2x1
===== CHIPLET 0 (0,0) =====
[ORDERED_OPERATIONS]
    0 | SEND    |    1 | x_to_y |        8 | T3
`
	files := map[string]string{"orphan.txt": orphan}

	result := testutil.RunIntegrationTest(t, files, testutil.WithCheckReport("orphan.txt"))

	require.NoError(t, result.Err)
	testutil.AssertLogged(t, result, "Unmatched transfer.")
	assert.Contains(t, result.LogOutput, "transfer T3 on chiplet 0: SEND has no matching RECV")
	assert.Contains(t, result.LogOutput, "  Chip 0: SEND peer=1 tid=3\n")
}

func TestApp_CheckReportRejectsMalformedReport(t *testing.T) {
	files := map[string]string{"bad.txt": "# Mesh: 1x1\n===== CHIPLET 0 (0,0) =====\n[ORDERED_OPERATIONS]\n0 | JUMP | - | x | 0 | T-1\n"}

	result := testutil.RunIntegrationTest(t, files, testutil.WithCheckReport("bad.txt"))

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), `line 4: unknown operation type "JUMP"`)
}

func TestApp_ConfigValidation(t *testing.T) {
	result := testutil.RunIntegrationTest(t, nil,
		testutil.WithCheckReport("r.txt"),
		testutil.WithMesh(2, 2),
	)

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "mesh overrides apply to placement input only")
}
