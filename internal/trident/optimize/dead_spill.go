package optimize

import "github.com/tridentlang/trident/internal/trident/tir"

// DeadSpillStore implements pass 4. The stack manager only ever touches a
// scratch address through one of two four/three-op idioms — the spill
// sequence `Push(A); Swap(d); WriteMem(1); Pop(1)` and the reload
// sequence `Push(A); ReadMem(1); Pop(1)` — so counting occurrences of
// each per address is sound: no other TIR op interleaves on the same
// address. Only spills of the top element (`Swap(1)`) count as writes:
// a deeper spill's net effect is not "remove the top", so it can be
// neither dropped as a pair nor collapsed to Pop(1), and is left as is.
type DeadSpillStore struct{}

func (p *DeadSpillStore) Name() string { return "dead-spill-store" }
func (p *DeadSpillStore) Description() string {
	return "removes matched spill/reload pairs and replaces unread spills with a plain Pop"
}

type match struct {
	start, end int // [start, end)
	addr       uint64
	isWrite    bool
}

func (p *DeadSpillStore) Apply(ops []tir.Op) ([]tir.Op, bool) {
	matches := findMatches(ops)
	if len(matches) == 0 {
		return ops, false
	}

	byAddr := make(map[uint64][]match)
	for _, m := range matches {
		byAddr[m.addr] = append(byAddr[m.addr], m)
	}

	remove := make(map[int]bool)  // match-start index -> drop entirely
	replace := make(map[int]bool) // match-start index -> collapse to Pop(1)
	changed := false

	for _, ms := range byAddr {
		var writes, reads []match
		for _, m := range ms {
			if m.isWrite {
				writes = append(writes, m)
			} else {
				reads = append(reads, m)
			}
		}
		switch {
		case len(writes) == 1 && len(reads) == 1:
			remove[writes[0].start] = true
			remove[reads[0].start] = true
			changed = true
		case len(writes) >= 1 && len(reads) == 0:
			for _, w := range writes {
				replace[w.start] = true
			}
			changed = true
		}
	}

	if !changed {
		return ops, false
	}

	matchAt := make(map[int]match, len(matches))
	for _, m := range matches {
		matchAt[m.start] = m
	}

	out := make([]tir.Op, 0, len(ops))
	i := 0
	for i < len(ops) {
		if m, ok := matchAt[i]; ok {
			if remove[i] {
				i = m.end
				continue
			}
			if replace[i] {
				out = append(out, tir.Pop(1))
				i = m.end
				continue
			}
		}
		out = append(out, ops[i])
		i++
	}
	return out, true
}

// findMatches scans ops for write and read idioms, left to right,
// non-overlapping.
func findMatches(ops []tir.Op) []match {
	var matches []match
	i := 0
	for i < len(ops) {
		if i+3 < len(ops) &&
			ops[i].Code == tir.OpPush &&
			ops[i+1].Code == tir.OpSwap && ops[i+1].Depth == 1 &&
			ops[i+2].Code == tir.OpWriteMem && ops[i+2].Count == 1 &&
			ops[i+3].Code == tir.OpPop && ops[i+3].Count == 1 {
			matches = append(matches, match{start: i, end: i + 4, addr: ops[i].Value, isWrite: true})
			i += 4
			continue
		}
		if i+2 < len(ops) &&
			ops[i].Code == tir.OpPush &&
			ops[i+1].Code == tir.OpReadMem && ops[i+1].Count == 1 &&
			ops[i+2].Code == tir.OpPop && ops[i+2].Count == 1 {
			matches = append(matches, match{start: i, end: i + 3, addr: ops[i].Value, isWrite: false})
			i += 3
			continue
		}
		i++
	}
	return matches
}
