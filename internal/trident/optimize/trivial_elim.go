package optimize

import "github.com/tridentlang/trident/internal/trident/tir"

// TrivialElim implements pass 3: removal of no-ops the builder may emit
// in generic code paths — Pop(0), Swap(0), Dup(0);Pop(1),
// Dup(0);Swap(1);Pop(1), and paired Swap(d);Swap(d) for the same d.
type TrivialElim struct{}

func (p *TrivialElim) Name() string { return "trivial-elim" }
func (p *TrivialElim) Description() string {
	return "removes Pop(0), Swap(0), and self-canceling Dup/Swap/Pop sequences"
}

func (p *TrivialElim) Apply(ops []tir.Op) ([]tir.Op, bool) {
	out := make([]tir.Op, 0, len(ops))
	changed := false

	i := 0
	for i < len(ops) {
		op := ops[i]

		if op.Code == tir.OpPop && op.Count == 0 {
			changed = true
			i++
			continue
		}
		if op.Code == tir.OpSwap && op.Depth == 0 {
			changed = true
			i++
			continue
		}

		// Dup(0); Pop(1) — duplicate the top then immediately discard
		// the copy.
		if op.Code == tir.OpDup && op.Depth == 0 && i+1 < len(ops) &&
			ops[i+1].Code == tir.OpPop && ops[i+1].Count == 1 {
			changed = true
			i += 2
			continue
		}

		// Dup(0); Swap(1); Pop(1) — duplicate the top, swap the copy
		// under the original, then discard the original: net effect is
		// nothing.
		if op.Code == tir.OpDup && op.Depth == 0 && i+2 < len(ops) &&
			ops[i+1].Code == tir.OpSwap && ops[i+1].Depth == 1 &&
			ops[i+2].Code == tir.OpPop && ops[i+2].Count == 1 {
			changed = true
			i += 3
			continue
		}

		// Swap(d); Swap(d) — self-canceling.
		if op.Code == tir.OpSwap && i+1 < len(ops) &&
			ops[i+1].Code == tir.OpSwap && ops[i+1].Depth == op.Depth {
			changed = true
			i += 2
			continue
		}

		out = append(out, op)
		i++
	}
	return out, changed
}
