package builder

import (
	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/diag"
	"github.com/tridentlang/trident/internal/trident/tir"
)

// emitReturnEpilogue discards the dead locals left beneath the function's
// return block while preserving the block's element order, then emits
// Return. Strategy is selected by (k, dead mod k); the
// optimizer does not rescue an incorrect choice here.
func (b *Builder) emitReturnEpilogue(fn *ast.Function) {
	k := fn.ReturnWidth()
	depth := b.stack.Depth()
	dead := depth - k
	if dead < 0 {
		b.fail(diag.New(diag.InfeasibleStackDepth, "return block wider than modeled stack depth"), fn.Span)
		dead = 0
	}

	if k == 0 {
		b.emitPopRun(dead)
		b.stack.PopMany(dead)
		b.emit(tir.Op{Code: tir.OpReturn})
		return
	}

	switch {
	case dead == 0:
		// Nothing to discard.
	case k <= b.cfg.MaxSwapDepth && dead%k == 0:
		b.emitRotationFreeEpilogue(k, dead)
	case k <= 5 && dead%k != 0:
		b.emitScratchEpilogue(k, dead)
	case k <= b.cfg.MaxSwapDepth && dead%k != 0:
		b.emitMidRangeEpilogue(k, dead)
	default:
		b.emitWideScratchEpilogue(k, dead)
	}

	b.stack.PopMany(dead)
	b.emit(tir.Op{Code: tir.OpReturn})
}

// emitRotationFreeEpilogue handles k <= MaxSwapDepth, dead % k == 0: each
// Swap(k); Pop(1) pair rotates the k-block by one position; after dead
// such pairs the block has rotated a whole multiple of k and is
// unchanged.
func (b *Builder) emitRotationFreeEpilogue(k, dead int) {
	for i := 0; i < dead; i++ {
		b.emit(tir.Swap(uint8(k)), tir.Pop(1))
	}
}

// emitScratchEpilogue handles k <= 5, dead % k != 0: the return block is
// too narrow to absorb a partial rotation cleanly, so it is saved whole,
// the dead locals are discarded directly, and the block is restored.
func (b *Builder) emitScratchEpilogue(k, dead int) {
	addr := b.stack.AllocScratch(k)
	b.emit(tir.Push(addr), tir.Op{Code: tir.OpWriteMem, Count: uint8(k)})
	b.emitPopRun(dead)
	b.emit(tir.Push(addr), tir.Op{Code: tir.OpReadMem, Count: uint8(k)})
}

// emitMidRangeEpilogue handles 6 <= k <= MaxSwapDepth, dead % k != 0:
// discard every dead local with the cheap Swap(k); Pop(1) pairs, which
// leaves the block rotated by dead % k positions, then apply k - dead % k
// single-step corrective rotations — adjacent-swap chains that cycle the
// block by one position, in the same direction, without popping — so the
// total rotation is a whole multiple of k.
func (b *Builder) emitMidRangeEpilogue(k, dead int) {
	for i := 0; i < dead; i++ {
		b.emit(tir.Swap(uint8(k)), tir.Pop(1))
	}
	leftover := dead % k
	if leftover == 0 {
		return
	}
	corrective := k - leftover
	for i := 0; i < corrective; i++ {
		b.emit(rotateOneStep(k)...)
	}
}

// rotateOneStep cycles a k-wide block at the top of the stack by one
// position using a chain of adjacent swaps.
func rotateOneStep(k int) []tir.Op {
	ops := make([]tir.Op, 0, k-1)
	for d := k - 1; d >= 1; d-- {
		ops = append(ops, tir.Swap(uint8(d)))
	}
	return ops
}

// emitWideScratchEpilogue handles k > MaxSwapDepth: Swap(k) is
// unavailable, so the block is saved element-by-element (top element
// first, each via the one-element spill idiom), the dead locals are
// discarded, and the block is restored in reverse.
func (b *Builder) emitWideScratchEpilogue(k, dead int) {
	addrs := make([]uint64, k)
	for i := 0; i < k; i++ {
		addrs[i] = b.stack.AllocScratch(1)
		b.emit(tir.Push(addrs[i]), tir.Swap(1), tir.Op{Code: tir.OpWriteMem, Count: 1}, tir.Pop(1))
	}
	b.emitPopRun(dead)
	for i := k - 1; i >= 0; i-- {
		b.emit(tir.Push(addrs[i]), tir.Op{Code: tir.OpReadMem, Count: 1}, tir.Pop(1))
	}
}
