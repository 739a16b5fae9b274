package builder

import (
	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/diag"
	"github.com/tridentlang/trident/internal/trident/tir"
)

// binaryOpcode maps an AST binary operator to its TIR primitive.
var binaryOpcode = map[ast.BinaryOp]tir.Opcode{
	ast.BinAdd: tir.OpAdd,
	ast.BinMul: tir.OpMul,
	ast.BinEq:  tir.OpEq,
	ast.BinLt:  tir.OpLt,
	ast.BinAnd: tir.OpAnd,
	ast.BinXor: tir.OpXor,
}

// buildExpr lowers e, leaving its value materialized on top of the
// modeled stack, and returns its width in field elements.
func (b *Builder) buildExpr(e ast.Expr) int {
	switch e.Kind {
	case ast.ExprLit:
		b.emit(tir.Push(e.LitValue))
		b.mustPushTemp(1, e.Span)
		return 1

	case ast.ExprVar:
		return b.buildVarRef(e)

	case ast.ExprBinary:
		return b.buildBinary(e)

	case ast.ExprCall:
		return b.buildCall(e)

	case ast.ExprTuple:
		total := 0
		for _, el := range e.Elems {
			total += b.buildExpr(el)
		}
		return total

	case ast.ExprField:
		return b.buildField(e)

	case ast.ExprPrimitive:
		return b.buildPrimitive(e)
	}
	return 0
}

// buildVarRef emits a copy of a named local onto the top of the stack.
// Every variable reference copies (Dup), including one in a return
// statement; a returned local is not moved, its original stays beneath
// the copy until the return epilogue discards it.
func (b *Builder) buildVarRef(e ast.Expr) int {
	depth, ops, err := b.stack.AccessVar(e.VarName)
	if err != nil {
		b.fail(diag.Wrap(diag.UnresolvedName, err, "reference to %s", e.VarName), e.Span)
		return 0
	}
	b.emit(ops...)

	width := e.Type.Width()
	if width == 0 {
		width = 1
	}
	b.emit(dupWide(uint8(depth), width)...)
	b.mustPushTemp(width, e.Span)
	return width
}

// dupWide copies a width-wide value whose first element sits at depth d
// to the top of the stack, preserving element order, by duplicating the
// deepest element of the block first.
func dupWide(d uint8, width int) []tir.Op {
	ops := make([]tir.Op, 0, width)
	for i := 0; i < width; i++ {
		ops = append(ops, tir.Dup(d+uint8(width-1)))
	}
	return ops
}

func (b *Builder) buildBinary(e ast.Expr) int {
	b.buildExpr(e.Left)
	b.buildExpr(e.Right)
	code, ok := binaryOpcode[e.Op]
	if !ok {
		b.fail(diag.New(diag.UnresolvedName, "unknown binary operator"), e.Span)
		return 0
	}
	b.emit(tir.Op{Code: code})
	b.stack.PopMany(2)
	b.mustPushTemp(1, e.Span)
	return 1
}

func (b *Builder) buildCall(e ast.Expr) int {
	for _, a := range e.Args {
		b.buildExpr(a)
	}
	b.emit(tir.Call(e.Callee))

	argWidth := 0
	for _, a := range e.Args {
		w := a.Type.Width()
		if w == 0 {
			w = 1
		}
		argWidth += w
	}
	b.stack.PopMany(argWidth)

	retTypes := b.sigs[e.Callee]
	total := 0
	for _, t := range retTypes {
		total += t.Width()
	}
	if total == 0 && e.Type.Width() > 0 {
		total = e.Type.Width()
	}
	if total == 0 {
		total = 1
	}
	b.mustPushTemp(total, e.Span)
	return total
}

func (b *Builder) buildField(e ast.Expr) int {
	// The base tuple was already lowered to a contiguous block on the
	// stack; Index selects which element of that block to copy. Tuple
	// element order on the stack matches source order, deepest first.
	baseWidth := b.buildExpr(*e.Base)
	_ = baseWidth
	// A field access on a live tuple is only meaningful immediately after
	// the tuple expression is evaluated to temporaries; resolve the
	// element's depth relative to the freshly pushed block.
	depth := elementDepth(*e.Base, e.Index)
	width := e.Type.Width()
	if width == 0 {
		width = 1
	}
	b.emit(dupWide(uint8(depth), width)...)
	b.mustPushTemp(width, e.Span)
	return width
}

// elementDepth computes the depth of tuple element idx within a tuple
// expression just pushed to the top of the stack, given source order.
func elementDepth(tuple ast.Expr, idx int) int {
	depth := 0
	for i := len(tuple.Elems) - 1; i > idx; i-- {
		w := tuple.Elems[i].Type.Width()
		if w == 0 {
			w = 1
		}
		depth += w
	}
	return depth
}

func (b *Builder) mustPushTemp(width int, span *diag.Span) {
	if _, err := b.stack.PushTemp(width); err != nil {
		b.fail(diag.Wrap(diag.InfeasibleStackDepth, err, "evaluating expression"), span)
	}
}
