package optimize

import "github.com/tridentlang/trident/internal/trident/tir"

// maxRotationSwap mirrors config.Config.MaxSwapDepth: Swap only carries a
// single depth byte the backend accepts up to 15, so a bulk rotation
// collapse can cover at most this many dead elements per Swap.
const maxRotationSwap = 15

// RotationCollapse implements the other half of pass 5: a constant-depth
// run of Swap(k); Pop(1) pairs — the pattern emitRotationFreeEpilogue
// emits when the live return block's width k evenly divides the number
// of dead locals beneath it — collapses into a bulk Swap plus batched
// Pop, e.g. 10 x (Swap(1); Pop(1)) -> Swap(10); Pop(5); Pop(5).
//
// Only k == 1 is rewritten here. Each k == 1 pair swaps the sole return
// value with the next dead element below it and immediately discards
// that element, so after n pairs the net effect is "discard the n dead
// elements, return value unmoved" regardless of their relative order to
// each other — exactly what Swap(n) followed by a batched Pop(n) does in
// one step. For k > 1 the pairs cycle a k-wide block that is not all
// dead, and collapsing that case correctly requires scratch memory to
// hold the block across the bulk discard; this pass runs after the
// function has already been built, with no visibility into the
// builder's live scratch-address cursor, so allocating addresses here
// risks colliding with ones the builder already used for spills earlier
// in the same function. The existing per-pair rotation in
// emitRotationFreeEpilogue is left as the only lowering for k > 1.
type RotationCollapse struct{}

func (p *RotationCollapse) Name() string { return "rotation-collapse" }
func (p *RotationCollapse) Description() string {
	return "rewrites constant one-wide Swap(1);Pop(1) rotation-free chains into a bulk Swap/Pop"
}

func (p *RotationCollapse) Apply(ops []tir.Op) ([]tir.Op, bool) {
	out := make([]tir.Op, 0, len(ops))
	changed := false

	i := 0
	for i < len(ops) {
		if n := matchRotationChain(ops, i); n >= 2 {
			out = append(out, batchedDiscardTop(n)...)
			changed = true
			i += n * 2
			continue
		}
		out = append(out, ops[i])
		i++
	}
	return out, changed
}

// matchRotationChain matches a maximal run starting at i of one-wide
// `Swap(1); Pop(1)` pairs, returning its length (0 if none).
func matchRotationChain(ops []tir.Op, i int) int {
	if i+1 >= len(ops) || !isRotationPair(ops, i) {
		return 0
	}
	n := 1
	for {
		j := i + n*2
		if j+1 >= len(ops) || !isRotationPair(ops, j) {
			break
		}
		n++
	}
	return n
}

func isRotationPair(ops []tir.Op, i int) bool {
	return ops[i].Code == tir.OpSwap && ops[i].Depth == 1 &&
		ops[i+1].Code == tir.OpPop && ops[i+1].Count == 1
}

// batchedDiscardTop rewrites n one-wide rotation pairs into groups of at
// most maxRotationSwap: each group brings its dead elements above the
// return value with one Swap, then discards them with the fewest
// Pop(<=5) ops, leaving the return value on top before the next group.
func batchedDiscardTop(n int) []tir.Op {
	var ops []tir.Op
	for n > 0 {
		g := n
		if g > maxRotationSwap {
			g = maxRotationSwap
		}
		ops = append(ops, tir.Swap(uint8(g)))
		for _, c := range batchCounts(g) {
			ops = append(ops, tir.Pop(uint8(c)))
		}
		n -= g
	}
	return ops
}
