// Package builder translates a resolved AST function body into a TIR
// operation sequence, maintaining the stack manager's model of the
// target machine's operand stack as it goes. The builder is the single
// source of truth for stack effects: every AST construct is translated
// to a block whose net effect on the stack model matches the construct's
// semantic type.
package builder

import (
	"fmt"

	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/config"
	"github.com/tridentlang/trident/internal/trident/diag"
	"github.com/tridentlang/trident/internal/trident/stack"
	"github.com/tridentlang/trident/internal/trident/tir"
)

// Signatures maps a callee name to its return-value widths, resolved by
// the caller from the enclosing module's function table (and, for
// cross-module calls, from the linked program's symbol table upstream of
// this package, since name resolution across module boundaries is
// settled by the caller before the builder runs).
type Signatures map[string][]ast.Type

// Builder lowers one function body. It is not reused across functions:
// construct a fresh Builder (and thus a fresh stack.Manager) per
// function.
type Builder struct {
	cfg   *config.Config
	sigs  Signatures
	stack *stack.Manager
	ops   []tir.Op
	diags diag.Diagnostics

	nesting   int
	labelSeq  int
	labelBase string
}

// New constructs a Builder for one function, labeled labelBase (used as
// the prefix for any loop/branch labels it must invent).
func New(cfg *config.Config, sigs Signatures, labelBase string) *Builder {
	return &Builder{
		cfg:       cfg,
		sigs:      sigs,
		stack:     stack.New(cfg),
		labelBase: labelBase,
	}
}

// freshLabel invents a unique label derived from the function name, used
// for Loop nodes, which must carry a label.
func (b *Builder) freshLabel() string {
	b.labelSeq++
	return fmt.Sprintf("%s__L%d", b.labelBase, b.labelSeq)
}

// fail records a diagnostic and returns it so callers can short-circuit.
func (b *Builder) fail(d *diag.Diagnostic, span *diag.Span) *diag.Diagnostic {
	if span != nil {
		d.At(*span)
	}
	b.diags = append(b.diags, d)
	return d
}

func (b *Builder) enterNesting(span *diag.Span) bool {
	b.nesting++
	if b.nesting > b.cfg.MaxNestingDepth {
		b.fail(diag.New(diag.NestingTooDeep, "structured statement nests past the limit of %d", b.cfg.MaxNestingDepth), span)
		return false
	}
	return true
}

func (b *Builder) leaveNesting() { b.nesting-- }

// emit appends ops to the function's TIR buffer.
func (b *Builder) emit(ops ...tir.Op) { b.ops = append(b.ops, ops...) }

// BuildFunction lowers fn's body to TIR, including its FnStart/FnEnd
// wrapper and return epilogue, collecting every diagnostic raised across
// the whole function body and returning them together.
func BuildFunction(cfg *config.Config, sigs Signatures, fn *ast.Function) ([]tir.Op, diag.Diagnostics) {
	b := New(cfg, sigs, fn.Name)

	b.emit(tir.Op{Code: tir.OpFnStart, Label: fn.Name})

	// Parameters arrive already materialized on the stack by the calling
	// convention, deepest-declared-first; seed the model so AccessVar
	// resolves them without emitting any code.
	b.seedParams(fn.Params)

	for _, stmt := range fn.Body {
		b.buildStmt(stmt)
	}

	b.emitReturnEpilogue(fn)
	b.emit(tir.Op{Code: tir.OpFnEnd})

	return b.ops, b.diags
}

// seedParams records fn's parameters as the initial stack model, in
// calling-convention order (first parameter deepest), so AccessVar
// resolves them without the builder emitting any code for the binding.
func (b *Builder) seedParams(params []ast.Param) {
	for i := 0; i < len(params); i++ {
		p := params[i]
		if _, err := b.stack.PushNamed(p.Name, p.Type.Width()); err != nil {
			b.fail(diag.Wrap(diag.InfeasibleStackDepth, err, "binding parameter %q", p.Name), nil)
		}
	}
}

// buildStmt lowers one statement, appending to b.ops.
func (b *Builder) buildStmt(s ast.Stmt) {
	switch s.Kind {
	case ast.StmtLet:
		w := b.buildExpr(s.Value)
		if w != s.Type.Width() && s.Type.Width() != 0 {
			b.fail(diag.New(diag.UnresolvedName, "let %s: value width %d does not match declared width %d", s.Target, w, s.Type.Width()), s.Span)
		}
		if err := b.stack.RenameTop(s.Target); err != nil {
			b.fail(diag.Wrap(diag.UnresolvedName, err, "let %s", s.Target), s.Span)
		}

	case ast.StmtAssign:
		b.buildExpr(s.Value)
		ops, err := b.stack.Overwrite(s.Target)
		if err != nil {
			b.fail(diag.Wrap(diag.UnresolvedName, err, "assignment to %s", s.Target), s.Span)
			return
		}
		b.emit(ops...)

	case ast.StmtIf:
		b.buildIf(s)

	case ast.StmtFor:
		b.buildFor(s)

	case ast.StmtReturn:
		// Handled by emitReturnEpilogue at the end of BuildFunction for
		// the common single-return-point case; a mid-body return would
		// additionally need its own epilogue here. The front end is
		// expected to have already normalized multi-return-point
		// functions into a single tail return, so this case only
		// records the values.
		for _, v := range s.Values {
			b.buildExpr(v)
		}

	case ast.StmtExpr:
		w := b.buildExpr(s.Expr)
		if w > 0 {
			b.stack.PopMany(w)
			b.emit(tir.Pop(uint8(minInt(w, 5))))
			if w > 5 {
				b.emitPopRun(w - 5)
			}
		}
	}
}

// emitPopRun emits the minimal number of Pop(<=5) ops totaling n, used
// wherever the builder must discard a wide value outright (the optimizer
// would otherwise have to do this merge itself — the builder does it
// directly for values it knows are dead immediately).
func (b *Builder) emitPopRun(n int) {
	for n > 0 {
		k := minInt(n, 5)
		b.emit(tir.Pop(uint8(k)))
		n -= k
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// buildIf lowers `if cond then A else B`: the condition is evaluated,
// both branches' named locals are spilled to a canonical shape, then each
// branch is built in a fresh sub-builder that inherits that shape.
func (b *Builder) buildIf(s ast.Stmt) {
	if !b.enterNesting(s.Span) {
		return
	}
	defer b.leaveNesting()

	b.buildExpr(s.Cond)
	b.stack.Pop() // the conditional dispatch consumes the boolean.
	b.emit(b.stack.SpillAllNamed()...)

	thenOps, thenDiags := b.buildBranch(s.Then)
	elseOps, elseDiags := b.buildBranch(s.Else)
	b.diags = append(b.diags, thenDiags...)
	b.diags = append(b.diags, elseDiags...)

	if len(s.Else) == 0 {
		b.emit(tir.Op{Code: tir.OpIfOnly, Then: thenOps})
		return
	}
	b.emit(tir.Op{Code: tir.OpIfElse, Then: thenOps, Else: elseOps})
}

// buildBranch runs stmts in a sub-builder that starts from a copy of b's
// current (already-canonicalized) stack model, so each branch sees the
// same variable set at the same depths without affecting the other.
func (b *Builder) buildBranch(stmts []ast.Stmt) ([]tir.Op, diag.Diagnostics) {
	sub := &Builder{
		cfg:       b.cfg,
		sigs:      b.sigs,
		stack:     b.stack.Clone(),
		labelBase: b.labelBase,
		labelSeq:  b.labelSeq,
		nesting:   b.nesting,
	}
	for _, stmt := range stmts {
		sub.buildStmt(stmt)
	}
	b.labelSeq = sub.labelSeq
	return sub.ops, sub.diags
}

// buildFor lowers `for Var in Lo..Hi { Body }` using the conventional
// counted-loop idiom: an internal remaining-iterations counter drives the
// structural Loop node (decremented each pass, tested by the backend's
// lowering of Loop), while Var is an ordinary named local incremented
// once per iteration for the body to read.
func (b *Builder) buildFor(s ast.Stmt) {
	if !b.enterNesting(s.Span) {
		return
	}
	defer b.leaveNesting()

	b.buildExpr(s.Lo)
	if err := b.stack.RenameTop(s.Var); err != nil {
		b.fail(diag.Wrap(diag.UnresolvedName, err, "for %s", s.Var), s.Span)
		return
	}

	// remaining = Hi - Lo, computed as Hi + (Lo * -1) since the ISA has
	// no subtraction primitive.
	varDepth, reload, err := b.stack.AccessVar(s.Var)
	if err != nil {
		b.fail(diag.Wrap(diag.UnresolvedName, err, "for %s", s.Var), s.Span)
		return
	}
	b.emit(reload...)
	b.emit(tir.Dup(uint8(varDepth)))
	if _, err := b.stack.PushTemp(1); err != nil {
		b.fail(diag.Wrap(diag.InfeasibleStackDepth, err, "for %s bound", s.Var), s.Span)
		return
	}

	b.emit(tir.PushNegOne())
	if _, err := b.stack.PushTemp(1); err != nil {
		b.fail(diag.Wrap(diag.InfeasibleStackDepth, err, "for %s bound", s.Var), s.Span)
		return
	}
	b.emit(tir.Op{Code: tir.OpMul})
	b.stack.PopMany(2)
	if _, err := b.stack.PushTemp(1); err != nil {
		b.fail(diag.Wrap(diag.InfeasibleStackDepth, err, "for %s bound", s.Var), s.Span)
		return
	}

	b.buildExpr(s.Hi)
	b.emit(tir.Op{Code: tir.OpAdd})
	b.stack.PopMany(2)
	if _, err := b.stack.PushTemp(1); err != nil {
		b.fail(diag.Wrap(diag.InfeasibleStackDepth, err, "for %s bound", s.Var), s.Span)
		return
	}

	const remainingName = "__remaining"
	if err := b.stack.RenameTop(remainingName); err != nil {
		b.fail(diag.Wrap(diag.UnresolvedName, err, "for %s", s.Var), s.Span)
		return
	}

	// Every other named local is canonicalized to scratch before the call,
	// but __remaining itself must stay physically on top: the loop's
	// lowering tests it with `dup 0` at the call site and again right
	// before `recurse`.
	b.emit(b.stack.SpillAllNamedExcept(remainingName)...)

	bodyBuilder := &Builder{
		cfg:       b.cfg,
		sigs:      b.sigs,
		stack:     b.stack.Clone(),
		labelBase: b.labelBase,
		labelSeq:  b.labelSeq,
		nesting:   b.nesting,
	}
	for _, stmt := range s.Body {
		bodyBuilder.buildStmt(stmt)
	}
	bodyBuilder.increment(s.Var)
	bodyBuilder.decrement(remainingName)
	bodyBuilder.emit(bodyBuilder.stack.SpillAllNamedExcept(remainingName)...)
	b.labelSeq = bodyBuilder.labelSeq
	b.diags = append(b.diags, bodyBuilder.diags...)

	b.emit(tir.Op{Code: tir.OpLoop, Label: b.freshLabel(), Body: bodyBuilder.ops})

	// The loop's zero-test leaves the spent counter physically on the
	// stack when it returns (call/return never touch the data stack);
	// discard it now that the loop has run to completion.
	b.emit(tir.Pop(1))
	b.stack.PopMany(1)
}

// increment emits `name = name + 1` via access, push 1, add, overwrite.
func (b *Builder) increment(name string) { b.addConstant(name, tir.Push(1)) }

// decrement emits `name = name - 1` via access, push -1, add, overwrite.
func (b *Builder) decrement(name string) { b.addConstant(name, tir.PushNegOne()) }

// addConstant emits `name = name + <literal>` and keeps the stack model
// in lockstep with every op it emits: dup the current value, push the
// literal, add, then write the result back over name's old slot.
func (b *Builder) addConstant(name string, literal tir.Op) {
	depth, ops, err := b.stack.AccessVar(name)
	if err != nil {
		b.fail(diag.Wrap(diag.UnresolvedName, err, "updating %s", name), nil)
		return
	}
	b.emit(ops...)

	b.emit(tir.Dup(uint8(depth)))
	if _, err := b.stack.PushTemp(1); err != nil {
		b.fail(diag.Wrap(diag.InfeasibleStackDepth, err, "updating %s", name), nil)
		return
	}

	b.emit(literal)
	if _, err := b.stack.PushTemp(1); err != nil {
		b.fail(diag.Wrap(diag.InfeasibleStackDepth, err, "updating %s", name), nil)
		return
	}

	b.emit(tir.Op{Code: tir.OpAdd})
	b.stack.PopMany(2)
	if _, err := b.stack.PushTemp(1); err != nil {
		b.fail(diag.Wrap(diag.InfeasibleStackDepth, err, "updating %s", name), nil)
		return
	}

	ops, err = b.stack.Overwrite(name)
	if err != nil {
		b.fail(diag.Wrap(diag.UnresolvedName, err, "updating %s", name), nil)
		return
	}
	b.emit(ops...)
}
