// Package optimize implements Trident's peephole optimizer: a sequence
// of local pattern rewrites applied to a fixed point, recursing into
// every structural body. Every pass preserves program semantics and
// never increases op count.
package optimize

import "github.com/tridentlang/trident/internal/trident/tir"

// Pass is one local rewrite over a flat op sequence. Apply returns the
// rewritten sequence and whether it changed anything.
type Pass interface {
	Name() string
	Description() string
	Apply(ops []tir.Op) ([]tir.Op, bool)
}

// Pipeline runs its passes in order, repeatedly, until a full round makes
// no change — then recurses into every structural body and repeats.
type Pipeline struct {
	passes []Pass
}

// NewPipeline builds the default pass sequence: hint/divine run-merging,
// trivial-op elimination, dead spill/store elimination, the two halves
// of epilogue collapse (bulk rotation, then scratch save/restore), in
// that order.
func NewPipeline() *Pipeline {
	return &Pipeline{
		passes: []Pass{
			&RunMerge{},
			&TrivialElim{},
			&DeadSpillStore{},
			&RotationCollapse{},
			&EpilogueCollapse{},
		},
	}
}

// AddPass appends a pass to the pipeline.
func (p *Pipeline) AddPass(pass Pass) { p.passes = append(p.passes, pass) }

// Run optimizes ops to a fixed point, recursing into structural bodies.
func (p *Pipeline) Run(ops []tir.Op) []tir.Op {
	ops = p.runFlat(ops)
	return p.recurse(ops)
}

// runFlat applies every pass, in order, repeatedly, until a full round
// changes nothing.
func (p *Pipeline) runFlat(ops []tir.Op) []tir.Op {
	for {
		changedAny := false
		for _, pass := range p.passes {
			next, changed := pass.Apply(ops)
			if changed {
				changedAny = true
			}
			ops = next
		}
		if !changedAny {
			return ops
		}
	}
}

// recurse applies runFlat (and further recursion) to the body of every
// structural op, then re-runs runFlat at this level once more in case a
// shrunk nested body changes how a pattern matches around it (structural
// ops themselves are opaque to the flat passes, so this second pass only
// matters for ops adjacent to the structural op, not inside it — cheap
// enough to always do).
func (p *Pipeline) recurse(ops []tir.Op) []tir.Op {
	out := make([]tir.Op, len(ops))
	changed := false
	for i, op := range ops {
		switch op.Code {
		case tir.OpIfElse:
			op.Then = p.Run(op.Then)
			op.Else = p.Run(op.Else)
			changed = true
		case tir.OpIfOnly:
			op.Then = p.Run(op.Then)
			changed = true
		case tir.OpLoop, tir.OpProofBlock:
			op.Body = p.Run(op.Body)
			changed = true
		}
		out[i] = op
	}
	if changed {
		return p.runFlat(out)
	}
	return out
}
