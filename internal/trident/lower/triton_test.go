package lower

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tridentlang/trident/internal/trident/tir"
)

func TestLowerFlatOps(t *testing.T) {
	ops := []tir.Op{
		tir.Push(5),
		{Code: tir.OpAdd},
		{Code: tir.OpReturn},
	}
	lines, diags := NewTriton().Lower(ops)
	assert.Empty(t, diags)
	assert.Equal(t, []string{"    push 5", "    add", "    return"}, lines)
}

func TestLowerUnsupportedOpaqueOpcodeDiagnoses(t *testing.T) {
	ops := []tir.Op{{Code: tir.Opcode(255)}}
	_, diags := NewTriton().Lower(ops)
	require.NotEmpty(t, diags)
}

// TestLowerIfElseDispatchesBothBranchesExactlyOnce checks the emitted
// shape of the two-skiz marker convention: the marker push and swap, one
// skiz per branch call, one return per deferred block, and the then block
// emitted before the else block. It does not execute either path.
func TestLowerIfElseDispatchesBothBranchesExactlyOnce(t *testing.T) {
	ops := []tir.Op{
		{
			Code: tir.OpIfElse,
			Then: []tir.Op{tir.Push(1)},
			Else: []tir.Op{tir.Push(2)},
		},
	}
	lines, diags := NewTriton().Lower(ops)
	require.Empty(t, diags)
	text := strings.Join(lines, "\n")

	assert.Contains(t, text, "push 1")
	assert.Contains(t, text, "swap 1")
	assert.Equal(t, 2, strings.Count(text, "skiz"))
	assert.Equal(t, 2, strings.Count(text, "return"))

	thenIdx := strings.Index(text, "__if_then")
	elseIdx := strings.Index(text, "__if_else")
	require.GreaterOrEqual(t, thenIdx, 0)
	require.GreaterOrEqual(t, elseIdx, 0)
	assert.Less(t, thenIdx, elseIdx, "then block is emitted before the else block")
}

func TestLowerIfOnlyEmitsSingleSkizCall(t *testing.T) {
	ops := []tir.Op{
		{Code: tir.OpIfOnly, Then: []tir.Op{tir.Push(9)}},
	}
	lines, diags := NewTriton().Lower(ops)
	require.Empty(t, diags)
	text := strings.Join(lines, "\n")
	assert.Equal(t, 1, strings.Count(text, "skiz"))
	assert.Contains(t, text, "push 9")
}

func TestLowerLoopEmitsZeroTestAndRecurse(t *testing.T) {
	ops := []tir.Op{
		{Code: tir.OpLoop, Label: "sum", Body: []tir.Op{tir.Push(1)}},
	}
	lines, diags := NewTriton().Lower(ops)
	require.Empty(t, diags)
	text := strings.Join(lines, "\n")
	assert.Contains(t, text, "call __sum")
	assert.Contains(t, text, "    dup 0\n    push 0\n    eq\n    skiz\n    return")
	assert.Contains(t, text, "recurse")
	assert.Contains(t, text, "__sum:")
}

func TestLowerReadWriteStorageUsesDerivedAddress(t *testing.T) {
	ops := []tir.Op{
		{Code: tir.OpWriteStorage, Name: "balance", Width: 1},
		{Code: tir.OpReadStorage, Name: "balance", Width: 1},
	}
	lines, diags := NewTriton().Lower(ops)
	require.Empty(t, diags)
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "write_mem 1")
	assert.Contains(t, lines[3], "read_mem 1")
	assert.Equal(t, lines[0], lines[2], "the same storage name must derive the same address")
}

func TestPadThenHashPadsToSpongeRateWidth(t *testing.T) {
	lines := padThenHash(5)
	assert.Len(t, lines, 3)
	assert.Equal(t, "push 0", lines[0])
	assert.Equal(t, "push 0", lines[1])
	assert.Equal(t, "hash", lines[2])
}

func TestPadThenHashAtFullWidthOnlyHashes(t *testing.T) {
	lines := padThenHash(7)
	assert.Equal(t, []string{"hash"}, lines)
}
