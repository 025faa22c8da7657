package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertReportHasChiplet checks that the report contains the block header of
// the given chiplet.
func AssertReportHasChiplet(t *testing.T, result *HarnessResult, header string) {
	t.Helper()

	require.True(t,
		strings.Contains(result.Report, "===== CHIPLET "+header+" ====="),
		"expected chiplet block %q was not found in report", header,
	)
}

// AssertLogged checks that a log record with the given message was written.
func AssertLogged(t *testing.T, result *HarnessResult, msg string) {
	t.Helper()

	require.True(t,
		strings.Contains(result.LogOutput, "msg="+quoteIfNeeded(msg)),
		"expected log message %q was not found in logs", msg,
	)
}

// quoteIfNeeded mirrors how the text handler renders a message value.
func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, " =\"") {
		return `"` + s + `"`
	}
	return s
}
