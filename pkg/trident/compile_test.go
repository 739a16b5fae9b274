package trident

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tridentlang/trident/internal/trident/ast"
)

func scalarType() Type { return Type{Kind: ast.KindScalar} }

func identityModule(name string, isEntry bool, calleeReturn int) *Module {
	return &Module{
		Name:    name,
		IsEntry: isEntry,
		Functions: []*Function{
			{
				Name:    "main",
				Returns: []Type{scalarType()},
				Body: []ast.Stmt{
					{
						Kind: ast.StmtReturn,
						Values: []ast.Expr{
							{Kind: ast.ExprLit, LitValue: 7, Type: scalarType()},
						},
					},
				},
			},
		},
	}
}

func TestCompileSingleModuleProducesLinkedProgram(t *testing.T) {
	modules := []*Module{identityModule("program", true, 0)}
	out, diags := Compile(DefaultConfig(), modules)
	require.False(t, diags.HasErrors())
	assert.True(t, strings.HasPrefix(out, "    call program__main"))
	assert.Contains(t, out, "push 7")
	assert.Contains(t, out, "return")
}

// sumLoopModule builds `fn main(n) -> scalar { let acc = 0; for i in 0..n
// { acc = acc + i } return acc }`, the mutable-accumulator loop shape the
// language's counted-loop statement exists to express.
func sumLoopModule(name string, isEntry bool) *Module {
	return &Module{
		Name:    name,
		IsEntry: isEntry,
		Functions: []*Function{
			{
				Name:    "main",
				Params:  []Param{{Name: "n", Type: scalarType()}},
				Returns: []Type{scalarType()},
				Body: []ast.Stmt{
					{
						Kind:   ast.StmtLet,
						Target: "acc",
						Type:   scalarType(),
						Value:  ast.Expr{Kind: ast.ExprLit, LitValue: 0, Type: scalarType()},
					},
					{
						Kind: ast.StmtFor,
						Var:  "i",
						Lo:   ast.Expr{Kind: ast.ExprLit, LitValue: 0, Type: scalarType()},
						Hi:   ast.Expr{Kind: ast.ExprVar, VarName: "n", Type: scalarType()},
						Body: []ast.Stmt{
							{
								Kind:   ast.StmtAssign,
								Target: "acc",
								Value: ast.Expr{
									Kind: ast.ExprBinary, Op: ast.BinAdd, Type: scalarType(),
									Left:  ast.Expr{Kind: ast.ExprVar, VarName: "acc", Type: scalarType()},
									Right: ast.Expr{Kind: ast.ExprVar, VarName: "i", Type: scalarType()},
								},
							},
						},
					},
					{
						Kind:   ast.StmtReturn,
						Values: []ast.Expr{{Kind: ast.ExprVar, VarName: "acc", Type: scalarType()}},
					},
				},
			},
		},
	}
}

// TestCompileForLoopKeepsCounterOnTopAcrossCallAndRecurse exercises the
// counted-loop statement through the whole pipeline: build, optimize,
// lower, link. The loop's hidden remaining-iterations counter must sit
// physically on top of the stack both where the loop is entered and
// right before its tail self-call, since the lowered zero-test reads it
// with `dup 0`.
func TestCompileForLoopKeepsCounterOnTopAcrossCallAndRecurse(t *testing.T) {
	modules := []*Module{sumLoopModule("program", true)}
	out, diags := Compile(DefaultConfig(), modules)
	require.False(t, diags.HasErrors())

	require.Contains(t, out, "recurse")
	idx := strings.Index(out, "dup 0")
	require.GreaterOrEqual(t, idx, 0, "the loop must lower its zero-test")

	afterZeroTest := out[idx:]
	require.Contains(t, afterZeroTest, "push 0")
	require.Contains(t, afterZeroTest, "eq")
	require.Contains(t, afterZeroTest, "skiz")
	require.Contains(t, afterZeroTest, "return")
	require.Contains(t, afterZeroTest, "recurse")
}

func TestCompileUnknownTargetFails(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Target = "nonexistent"
	_, err := NewCompiler(cfg)
	assert.Error(t, err)
}

func TestCompileNilConfigUsesDefault(t *testing.T) {
	modules := []*Module{identityModule("program", true, 0)}
	out, diags := Compile(nil, modules)
	require.False(t, diags.HasErrors())
	assert.NotEmpty(t, out)
}

func TestCompileNoEntryModuleStillReturnsLinkedStub(t *testing.T) {
	modules := []*Module{identityModule("program", false, 0)}
	out, diags := Compile(DefaultConfig(), modules)
	assert.False(t, diags.HasErrors())
	assert.Contains(t, out, "__undefined_entry__")
}
