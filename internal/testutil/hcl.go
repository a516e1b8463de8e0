package testutil

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Body parses an HCL snippet and returns its body, for feeding plugin
// configuration blocks into tests. Fails the test on parse diagnostics.
func Body(t *testing.T, src string) hcl.Body {
	t.Helper()
	file, diags := hclparse.NewParser().ParseHCL([]byte(src), t.Name()+".hcl")
	if diags.HasErrors() {
		t.Fatalf("failed to parse test HCL: %v", diags)
	}
	return file.Body
}
