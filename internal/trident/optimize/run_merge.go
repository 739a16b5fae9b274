package optimize

import "github.com/tridentlang/trident/internal/trident/tir"

// RunMerge implements passes 1 and 2: consecutive runs of Hint or Divine
// merge into one op carrying the summed count, and consecutive runs of
// Pop merge into the smallest sequence of Pop(<=5) with the same total.
type RunMerge struct{}

func (p *RunMerge) Name() string { return "run-merge" }
func (p *RunMerge) Description() string {
	return "merges consecutive Hint/Divine runs and collapses Pop runs to minimal Pop(<=5) batches"
}

func (p *RunMerge) Apply(ops []tir.Op) ([]tir.Op, bool) {
	out := make([]tir.Op, 0, len(ops))
	changed := false

	i := 0
	for i < len(ops) {
		op := ops[i]
		switch op.Code {
		case tir.OpHint, tir.OpDivine:
			total := int(op.Count)
			j := i + 1
			for j < len(ops) && ops[j].Code == op.Code {
				total += int(ops[j].Count)
				j++
			}
			if j > i+1 {
				changed = true
			}
			out = append(out, tir.Op{Code: op.Code, Count: uint8(total)})
			i = j

		case tir.OpPop:
			total := int(op.Count)
			j := i + 1
			for j < len(ops) && ops[j].Code == tir.OpPop {
				total += int(ops[j].Count)
				j++
			}
			batches := popBatches(total)
			if j > i+1 || len(batches) != 1 || int(batches[0]) != int(op.Count) {
				changed = true
			}
			for _, n := range batches {
				out = append(out, tir.Pop(n))
			}
			i = j

		default:
			out = append(out, op)
			i++
		}
	}
	return out, changed
}

// popBatches splits total into the fewest Pop(<=5) batches.
func popBatches(total int) []uint8 {
	if total <= 0 {
		return nil
	}
	var batches []uint8
	for total > 0 {
		n := total
		if n > 5 {
			n = 5
		}
		batches = append(batches, uint8(n))
		total -= n
	}
	return batches
}
