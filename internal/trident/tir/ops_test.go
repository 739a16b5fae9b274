package tir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "push", OpPush.String())
	assert.Equal(t, "read_mem", OpReadMem.String())
	assert.Contains(t, Opcode(250).String(), "opcode(250)")
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, Op{Code: OpPush, Value: 7}, Push(7))
	assert.Equal(t, Op{Code: OpPushNegOne}, PushNegOne())
	assert.Equal(t, Op{Code: OpPop, Count: 3}, Pop(3))
	assert.Equal(t, Op{Code: OpDup, Depth: 2}, Dup(2))
	assert.Equal(t, Op{Code: OpSwap, Depth: 5}, Swap(5))
	assert.Equal(t, Op{Code: OpReadMem, Count: 4}, ReadMem(4))
	assert.Equal(t, Op{Code: OpWriteMem, Count: 4}, WriteMem(4))
	assert.Equal(t, Op{Code: OpCall, Label: "foo"}, Call("foo"))
	assert.Equal(t, Op{Code: OpLabel, Label: "foo"}, Label("foo"))
	assert.Equal(t, Op{Code: OpComment, Text: "hi"}, Comment("hi"))
}

func TestStackEffect(t *testing.T) {
	cases := []struct {
		name string
		op   Op
		want int
	}{
		{"push", Push(1), 1},
		{"pop 3", Pop(3), -3},
		{"dup", Dup(0), 1},
		{"swap", Swap(0), 0},
		{"add", Op{Code: OpAdd}, -1},
		{"read_mem 3", ReadMem(3), 3},
		{"write_mem 3", WriteMem(3), -3},
		{"hash", Op{Code: OpHash}, -5},
		{"assert_vector", Op{Code: OpAssertVector}, -10},
		{"sponge_squeeze", Op{Code: OpSpongeSqueeze}, 10},
		{"sponge_absorb", Op{Code: OpSpongeAbsorb}, -10},
		{"structural if_else", Op{Code: OpIfElse}, 0},
		{"asm delta", Op{Code: OpAsm, StackDelta: -2}, -2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.op.StackEffect())
		})
	}
}
