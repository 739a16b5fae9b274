package linker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tridentlang/trident/internal/trident/diag"
)

func TestLinkTwoModulesCallerAndHelper(t *testing.T) {
	modules := []ModuleOutput{
		{
			ModuleName: "program",
			IsEntry:    true,
			Text: "__main:\n" +
				"    call __helper__aux\n" +
				"    return\n",
		},
		{
			ModuleName: "helper",
			Text: "__aux:\n" +
				"    push 1\n" +
				"    return\n",
		},
	}

	out, diags := New().Link(modules)
	require.Empty(t, diags)
	assert.Contains(t, out, "call program__main")
	assert.Contains(t, out, "program__main:")
	assert.Contains(t, out, "helper__aux:")
}

func TestLinkDropsUnreachableFunctions(t *testing.T) {
	modules := []ModuleOutput{
		{
			ModuleName: "program",
			IsEntry:    true,
			Text: "__main:\n" +
				"    return\n\n" +
				"__dead:\n" +
				"    push 1\n" +
				"    return\n",
		},
	}
	out, _ := New().Link(modules)
	assert.NotContains(t, out, "program__dead")
}

func TestLinkMultipleEntryModulesDiagnoses(t *testing.T) {
	modules := []ModuleOutput{
		{ModuleName: "a", IsEntry: true, Text: "__main:\n    return\n"},
		{ModuleName: "b", IsEntry: true, Text: "__main:\n    return\n"},
	}
	_, diags := New().Link(modules)
	require.NotEmpty(t, diags)
	assert.Equal(t, diag.MultipleEntryModules, diags[0].Code)
}

func TestLinkNoEntryModuleUsesUndefinedEntry(t *testing.T) {
	modules := []ModuleOutput{
		{ModuleName: "a", Text: "__helper:\n    return\n"},
	}
	out, _ := New().Link(modules)
	assert.True(t, strings.HasPrefix(out, "    call __undefined_entry__"))
}

func TestLinkUnresolvedCallDiagnoses(t *testing.T) {
	modules := []ModuleOutput{
		{
			ModuleName: "program",
			IsEntry:    true,
			Text: "__main:\n" +
				"    call __ghost\n" +
				"    return\n",
		},
	}
	_, diags := New().Link(modules)
	require.NotEmpty(t, diags)
	assert.Equal(t, diag.UnresolvedCall, diags[0].Code)
}
