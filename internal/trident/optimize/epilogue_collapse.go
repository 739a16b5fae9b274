package optimize

import "github.com/tridentlang/trident/internal/trident/tir"

// maxMemBatch mirrors config.Config.MaxPopBatch: WriteMem/ReadMem only
// carry a single width byte, so a batch can cover at most this many
// scratch slots in one instruction.
const maxMemBatch = 5

// EpilogueCollapse implements pass 5. emitWideScratchEpilogue saves and
// restores a return block wider than MaxSwapDepth one element at a time,
// each via the one-element spill/reload idiom, because it does not know
// up front whether the block's scratch addresses will land contiguously.
// Once addresses are concrete this pass recognizes a contiguous run of
// single-element saves (or the matching reverse run of restores) and
// rewrites it into the same batched WriteMem(n)/ReadMem(n) form
// emitScratchEpilogue uses directly for narrow blocks.
type EpilogueCollapse struct{}

func (p *EpilogueCollapse) Name() string { return "epilogue-collapse" }
func (p *EpilogueCollapse) Description() string {
	return "rewrites contiguous one-element scratch save/restore runs into batched WriteMem/ReadMem"
}

func (p *EpilogueCollapse) Apply(ops []tir.Op) ([]tir.Op, bool) {
	out := make([]tir.Op, 0, len(ops))
	changed := false

	i := 0
	for i < len(ops) {
		if base, n := matchSaveRun(ops, i); n >= 2 {
			out = append(out, batchedWrite(base, n)...)
			changed = true
			i += n * 4
			continue
		}
		if base, n := matchRestoreRun(ops, i); n >= 2 {
			out = append(out, batchedRead(base, n)...)
			changed = true
			i += n * 3
			continue
		}
		out = append(out, ops[i])
		i++
	}
	return out, changed
}

// matchSaveRun matches a maximal run starting at i of
// `Push(A); Swap(1); WriteMem(1); Pop(1)` with ascending consecutive
// addresses A, A+1, A+2, ... It returns the base address and run length.
func matchSaveRun(ops []tir.Op, i int) (base uint64, n int) {
	if i+3 >= len(ops) || !isOneElemSave(ops, i) {
		return 0, 0
	}
	base = ops[i].Value
	n = 1
	for {
		j := i + n*4
		if j+3 >= len(ops) || !isOneElemSave(ops, j) || ops[j].Value != base+uint64(n) {
			break
		}
		n++
	}
	return base, n
}

func isOneElemSave(ops []tir.Op, i int) bool {
	return ops[i].Code == tir.OpPush &&
		ops[i+1].Code == tir.OpSwap && ops[i+1].Depth == 1 &&
		ops[i+2].Code == tir.OpWriteMem && ops[i+2].Count == 1 &&
		ops[i+3].Code == tir.OpPop && ops[i+3].Count == 1
}

// matchRestoreRun matches a maximal run starting at i of
// `Push(A); ReadMem(1); Pop(1)` with descending consecutive addresses
// A, A-1, A-2, ... (the order emitWideScratchEpilogue restores in). It
// returns the lowest address in the run (the base a matching
// batchedWrite would have used) and the run length.
func matchRestoreRun(ops []tir.Op, i int) (base uint64, n int) {
	if i+2 >= len(ops) || !isOneElemRestore(ops, i) {
		return 0, 0
	}
	top := ops[i].Value
	n = 1
	for {
		j := i + n*3
		if j+2 >= len(ops) || !isOneElemRestore(ops, j) || ops[j].Value != top-uint64(n) {
			break
		}
		n++
	}
	return top - uint64(n-1), n
}

func isOneElemRestore(ops []tir.Op, i int) bool {
	return ops[i].Code == tir.OpPush &&
		ops[i+1].Code == tir.OpReadMem && ops[i+1].Count == 1 &&
		ops[i+2].Code == tir.OpPop && ops[i+2].Count == 1
}

// batchedWrite rewrites an n-element ascending save run starting at base
// into the fewest Push(addr); WriteMem(count) pairs, in the same
// ascending address order the original per-element run used.
func batchedWrite(base uint64, n int) []tir.Op {
	var ops []tir.Op
	offset := 0
	for _, c := range batchCounts(n) {
		ops = append(ops, tir.Push(base+uint64(offset)), tir.WriteMem(uint8(c)))
		offset += c
	}
	return ops
}

// batchedRead rewrites an n-element descending restore run (lowest
// address base) into the fewest Push(addr); ReadMem(count) pairs,
// visiting batches highest-address-first to match the original
// per-element restore order, each batch itself ascending to match
// batchedWrite's convention.
func batchedRead(base uint64, n int) []tir.Op {
	counts := batchCounts(n)
	var ops []tir.Op
	offset := n
	for i := len(counts) - 1; i >= 0; i-- {
		c := counts[i]
		offset -= c
		ops = append(ops, tir.Push(base+uint64(offset)), tir.ReadMem(uint8(c)))
	}
	return ops
}

func batchCounts(n int) []int {
	var counts []int
	for n > 0 {
		c := n
		if c > maxMemBatch {
			c = maxMemBatch
		}
		counts = append(counts, c)
		n -= c
	}
	return counts
}
