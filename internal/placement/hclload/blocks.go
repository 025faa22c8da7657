package hclload

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// findUniqueBlock returns the only block of the given type. A second block
// of that type is reported as a diagnostic; no block at all yields nil.
func findUniqueBlock(blocks hcl.Blocks, name string) (*hcl.Block, hcl.Diagnostics) {
	var found *hcl.Block
	var diags hcl.Diagnostics

	for _, block := range blocks {
		if block.Type != name {
			continue
		}
		if found != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Duplicate %q block", name),
				Detail:   fmt.Sprintf("Only one %q block is allowed, the first is at %s.", name, found.DefRange),
				Subject:  block.DefRange.Ptr(),
			})
			continue
		}
		found = block
	}

	return found, diags
}

func errorDiag(summary string, subject *hcl.Range, format string, args ...any) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf(format, args...),
		Subject:  subject,
	}
}
