package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tridentlang/trident/internal/trident/tir"
)

func TestDeadSpillStoreEliminatesMatchedPair(t *testing.T) {
	ops := []tir.Op{
		tir.Push(100), tir.Swap(1), tir.WriteMem(1), tir.Pop(1),
		tir.Push(100), tir.ReadMem(1), tir.Pop(1),
	}
	out, changed := (&DeadSpillStore{}).Apply(ops)
	assert.True(t, changed)
	assert.Empty(t, out)
}

func TestDeadSpillStoreReplacesUnreadWriteWithPop(t *testing.T) {
	ops := []tir.Op{
		tir.Push(200), tir.Swap(1), tir.WriteMem(1), tir.Pop(1),
	}
	out, changed := (&DeadSpillStore{}).Apply(ops)
	assert.True(t, changed)
	assert.Equal(t, []tir.Op{tir.Pop(1)}, out)
}

func TestDeadSpillStoreLeavesReadWriteBothPresentAlone(t *testing.T) {
	ops := []tir.Op{
		tir.Push(300), tir.Swap(1), tir.WriteMem(1), tir.Pop(1),
		tir.Push(300), tir.ReadMem(1), tir.Pop(1),
		tir.Push(300), tir.ReadMem(1), tir.Pop(1),
	}
	out, changed := (&DeadSpillStore{}).Apply(ops)
	assert.False(t, changed)
	assert.Equal(t, ops, out)
}

func TestDeadSpillStoreNoMatchIsNoop(t *testing.T) {
	ops := []tir.Op{tir.Push(1), {Code: tir.OpAdd}}
	out, changed := (&DeadSpillStore{}).Apply(ops)
	assert.False(t, changed)
	assert.Equal(t, ops, out)
}
