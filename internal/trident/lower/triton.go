package lower

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/tridentlang/trident/internal/trident/diag"
	"github.com/tridentlang/trident/internal/trident/tir"
)

// storageBase and storageSpan carve out an address region for abstract
// ReadStorage/WriteStorage ops, disjoint from the stack manager's own
// scratch region (which starts at config.Default().ScratchBase and
// grows upward bounded by program size, nowhere near this range).
const (
	storageBase = uint64(1) << 62
	storageSpan = uint64(1) << 40
)

// Triton lowers TIR to the Triton instruction set: push/pop/dup/
// swap, field arithmetic, I/O, memory, crypto, assertions, and the
// call/return/recurse/skiz/halt control primitives. It has no explicit
// jump, so IfElse/IfOnly/Loop are each realized as a small dispatch
// sequence of skiz-guarded calls into deferred labeled blocks.
type Triton struct{}

// NewTriton constructs the Triton lowering backend.
func NewTriton() *Triton { return &Triton{} }

func (t *Triton) TargetName() string { return "triton" }

func (t *Triton) Lower(ops []tir.Op) ([]string, diag.Diagnostics) {
	ctx := &tritonCtx{}
	main, deferred := ctx.lowerSeq(ops)
	lines := make([]string, 0, len(main)+len(deferred))
	lines = append(lines, main...)
	lines = append(lines, deferred...)
	return lines, ctx.diags
}

type tritonCtx struct {
	diags    diag.Diagnostics
	labelSeq int
}

func (c *tritonCtx) freshLabel(prefix string) string {
	c.labelSeq++
	return fmt.Sprintf("%s_%d", prefix, c.labelSeq)
}

// lowerSeq lowers a flat op list, returning the inline text for this
// scope plus any labeled blocks its structural ops deferred.
func (c *tritonCtx) lowerSeq(ops []tir.Op) (main, deferred []string) {
	for _, op := range ops {
		switch op.Code {
		case tir.OpIfElse:
			m, d := c.lowerIfElse(op)
			main = append(main, m...)
			deferred = append(deferred, d...)
		case tir.OpIfOnly:
			m, d := c.lowerIfOnly(op)
			main = append(main, m...)
			deferred = append(deferred, d...)
		case tir.OpLoop:
			m, d := c.lowerLoop(op)
			main = append(main, m...)
			deferred = append(deferred, d...)
		case tir.OpProofBlock:
			m, d := c.lowerProofBlock(op)
			main = append(main, m...)
			deferred = append(deferred, d...)
		case tir.OpOpen, tir.OpSeal, tir.OpReadStorage, tir.OpWriteStorage, tir.OpHashDigest:
			main = append(main, indentAll(c.lowerAbstract(op))...)
		case tir.OpLabel, tir.OpFnStart:
			main = append(main, "__"+op.Label+":")
		case tir.OpFnEnd:
			// Structural marker only; no text.
		case tir.OpPreamble:
			// The linker synthesizes the program preamble from the
			// resolved, mangled entry label — nothing to emit per module.
		case tir.OpBlankLine:
			main = append(main, "")
		case tir.OpComment:
			main = append(main, "// "+op.Text)
		case tir.OpAsm:
			main = append(main, op.Lines...)
		default:
			if line, ok := mnemonicLine(op); ok {
				main = append(main, "    "+line)
			} else {
				c.diags = append(c.diags, diag.New(diag.UnsupportedAbstractOp,
					"triton: no lowering for opcode %s", op.Code))
			}
		}
	}
	return main, deferred
}

// lowerIfElse dispatches on a boolean already sitting on top of the
// real stack. Both branches' calls are gated by independent skiz
// checks consumed back-to-back in program order: a marker value stands
// in for the second gate so that entering the then branch does not
// disturb what the second skiz later needs. then_label discards the
// marker on entry (since it sits where the branch's own scope begins)
// and pushes a fresh zero at its tail so the second skiz, reached via
// its return, is told to skip the else call.
func (c *tritonCtx) lowerIfElse(op tir.Op) (main, deferred []string) {
	thenLabel := c.freshLabel("if_then")
	elseLabel := c.freshLabel("if_else")

	main = []string{
		"    push 1",
		"    swap 1",
		"    skiz",
		"    call __" + thenLabel,
		"    skiz",
		"    call __" + elseLabel,
	}

	thenMain, thenDeferred := c.lowerSeq(op.Then)
	elseMain, elseDeferred := c.lowerSeq(op.Else)

	deferred = append(deferred, "", "__"+thenLabel+":", "    pop 1")
	deferred = append(deferred, thenMain...)
	deferred = append(deferred, "    push 0", "    return")
	deferred = append(deferred, thenDeferred...)

	deferred = append(deferred, "", "__"+elseLabel+":")
	deferred = append(deferred, elseMain...)
	deferred = append(deferred, "    return")
	deferred = append(deferred, elseDeferred...)

	return main, deferred
}

// lowerIfOnly dispatches a single branch whose body has zero net stack
// effect (the builder only emits IfOnly for else-less statements), so
// no marker bookkeeping is needed.
func (c *tritonCtx) lowerIfOnly(op tir.Op) (main, deferred []string) {
	thenLabel := c.freshLabel("if_only")

	main = []string{
		"    skiz",
		"    call __" + thenLabel,
	}

	thenMain, thenDeferred := c.lowerSeq(op.Then)
	deferred = append(deferred, "", "__"+thenLabel+":")
	deferred = append(deferred, thenMain...)
	deferred = append(deferred, "    return")
	deferred = append(deferred, thenDeferred...)

	return main, deferred
}

// lowerLoop realizes the entry-zero-test / recurse pattern: the body
// runs once per call, the counter left at the top by the builder's for
// lowering decides whether to recurse (tail self-call) or return.
func (c *tritonCtx) lowerLoop(op tir.Op) (main, deferred []string) {
	label := op.Label
	if label == "" {
		label = c.freshLabel("loop")
	}

	bodyMain, bodyDeferred := c.lowerSeq(op.Body)

	main = []string{"    call __" + label}

	deferred = append(deferred, "", "__"+label+":",
		"    dup 0",
		"    push 0",
		"    eq",
		"    skiz",
		"    return")
	deferred = append(deferred, bodyMain...)
	deferred = append(deferred, "    recurse")
	deferred = append(deferred, bodyDeferred...)

	return main, deferred
}

// lowerProofBlock inlines its body, annotated with the digest naming
// computed for it so the emitted text documents the commitment the
// backend is expected to assert in-circuit.
func (c *tritonCtx) lowerProofBlock(op tir.Op) (main, deferred []string) {
	main = append(main, fmt.Sprintf("    // proof_block program_hash=%x", op.ProgramHash))
	bodyMain, bodyDeferred := c.lowerSeq(op.Body)
	main = append(main, bodyMain...)
	deferred = append(deferred, bodyDeferred...)
	return main, deferred
}

// lowerAbstract expands the pre-lowering event/storage ops into the
// primitives this backend actually supports.
func (c *tritonCtx) lowerAbstract(op tir.Op) []string {
	switch op.Code {
	case tir.OpReadStorage:
		addr := storageAddress(op.Name)
		return []string{fmt.Sprintf("push %d", addr), fmt.Sprintf("read_mem %d", op.Width)}
	case tir.OpWriteStorage:
		addr := storageAddress(op.Name)
		return []string{fmt.Sprintf("push %d", addr), fmt.Sprintf("write_mem %d", op.Width)}
	case tir.OpOpen:
		return []string{fmt.Sprintf("divine %d", op.Count)}
	case tir.OpSeal:
		return padThenHash(int(op.Count))
	case tir.OpHashDigest:
		return padThenHash(op.Width)
	default:
		c.diags = append(c.diags, diag.New(diag.UnsupportedAbstractOp,
			"triton: no lowering for abstract opcode %s", op.Code))
		return nil
	}
}

// padThenHash pads an input narrower than the sponge's rate width (7)
// with zeros before hashing, per Seal's padding rule.
func padThenHash(width int) []string {
	var lines []string
	for i := 0; i < 7-width; i++ {
		lines = append(lines, "push 0")
	}
	lines = append(lines, "hash")
	return lines
}

// storageAddress derives a deterministic scratch-RAM address for a
// named storage slot, disjoint from the builder's spill region.
func storageAddress(name string) uint64 {
	sum := blake2b.Sum256([]byte(name))
	offset := binary.BigEndian.Uint64(sum[:8]) % storageSpan
	return storageBase + offset
}

func indentAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = "    " + l
	}
	return out
}

// mnemonicLine renders the opcodes with a direct, context-free textual
// form. Structural, abstract, and program-structure ops are handled by
// their own cases in lowerSeq and never reach here.
func mnemonicLine(op tir.Op) (string, bool) {
	switch op.Code {
	case tir.OpPush:
		return fmt.Sprintf("push %d", op.Value), true
	case tir.OpPushNegOne:
		return "push -1", true
	case tir.OpPop:
		return fmt.Sprintf("pop %d", op.Count), true
	case tir.OpDup:
		return fmt.Sprintf("dup %d", op.Depth), true
	case tir.OpSwap:
		return fmt.Sprintf("swap %d", op.Depth), true
	case tir.OpAdd, tir.OpMul, tir.OpEq, tir.OpLt, tir.OpAnd, tir.OpXor,
		tir.OpDivMod, tir.OpInvert, tir.OpSplit, tir.OpLog2, tir.OpPow, tir.OpPopCount,
		tir.OpXbMul, tir.OpXInvert, tir.OpXxDotStep, tir.OpXbDotStep,
		tir.OpHash, tir.OpSpongeInit, tir.OpSpongeAbsorb, tir.OpSpongeSqueeze, tir.OpSpongeLoad,
		tir.OpMerkleStep, tir.OpMerkleLoad, tir.OpAssert, tir.OpAssertVector,
		tir.OpReturn, tir.OpHalt:
		return op.Code.String(), true
	case tir.OpReadIo, tir.OpWriteIo, tir.OpDivine, tir.OpHint, tir.OpReadMem, tir.OpWriteMem:
		return fmt.Sprintf("%s %d", op.Code.String(), op.Count), true
	case tir.OpCall:
		return "call __" + op.Label, true
	default:
		return "", false
	}
}
