package builder

import (
	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/diag"
	"github.com/tridentlang/trident/internal/trident/tir"
)

// buildPrimitive lowers one of the source language's built-in operations
// to a concrete or abstract TIR op.
func (b *Builder) buildPrimitive(e ast.Expr) int {
	switch e.Prim {
	case ast.PrimPubRead:
		b.emit(tir.Op{Code: tir.OpReadIo, Count: 1})
		b.mustPushTemp(1, e.Span)
		return 1

	case ast.PrimPubWrite:
		w := b.buildArgs(e.PrimArgs)
		b.emit(tir.Op{Code: tir.OpWriteIo, Count: uint8(w)})
		b.stack.PopMany(w)
		return 0

	case ast.PrimDivine:
		n := uint8(1)
		if len(e.PrimArgs) == 1 && e.PrimArgs[0].Kind == ast.ExprLit {
			n = uint8(e.PrimArgs[0].LitValue)
		}
		b.emit(tir.Op{Code: tir.OpDivine, Count: n})
		b.mustPushTemp(int(n), e.Span)
		return int(n)

	case ast.PrimHash:
		w := b.buildArgs(e.PrimArgs)
		b.emit(tir.Op{Code: tir.OpHash})
		b.stack.PopMany(w)
		b.mustPushTemp(5, e.Span)
		return 5

	case ast.PrimAssert:
		w := b.buildArgs(e.PrimArgs)
		b.emit(tir.Op{Code: tir.OpAssert})
		b.stack.PopMany(w)
		return 0

	case ast.PrimAssertEq:
		w := b.buildArgs(e.PrimArgs)
		b.emit(tir.Op{Code: tir.OpEq})
		b.stack.PopMany(w)
		b.mustPushTemp(1, e.Span)
		b.emit(tir.Op{Code: tir.OpAssert})
		b.stack.PopMany(1)
		return 0

	case ast.PrimMerkleStep:
		w := b.buildArgs(e.PrimArgs)
		b.emit(tir.Op{Code: tir.OpMerkleStep})
		b.stack.PopMany(w)
		b.mustPushTemp(w-1, e.Span)
		return w - 1

	case ast.PrimOpen:
		w := b.buildArgs(e.PrimArgs)
		b.emit(tir.Op{Code: tir.OpOpen, Name: e.PrimName, Count: uint8(w)})
		b.stack.PopMany(w)
		return 0

	case ast.PrimSeal:
		w := b.buildArgs(e.PrimArgs)
		b.emit(tir.Op{Code: tir.OpSeal, Name: e.PrimName, Count: uint8(w)})
		b.stack.PopMany(w)
		return 0

	case ast.PrimReadStorage:
		width := e.Type.Width()
		if width == 0 {
			width = 1
		}
		b.emit(tir.Op{Code: tir.OpReadStorage, Name: e.PrimName, Width: width})
		b.mustPushTemp(width, e.Span)
		return width

	case ast.PrimWriteStorage:
		w := b.buildArgs(e.PrimArgs)
		b.emit(tir.Op{Code: tir.OpWriteStorage, Name: e.PrimName, Width: w})
		b.stack.PopMany(w)
		return 0
	}

	b.fail(diag.New(diag.UnresolvedName, "unknown primitive"), e.Span)
	return 0
}

// buildArgs lowers each argument in source order and returns the total
// width pushed.
func (b *Builder) buildArgs(args []ast.Expr) int {
	total := 0
	for _, a := range args {
		total += b.buildExpr(a)
	}
	return total
}
