package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagnosticErrorIncludesSpanAndCause(t *testing.T) {
	cause := errors.New("boom")
	d := Wrap(InfeasibleStackDepth, cause, "return block too wide").At(Span{File: "f.td", Line: 3, Col: 1})

	msg := d.Error()
	assert.Contains(t, msg, "f.td:3:1")
	assert.Contains(t, msg, "boom")
	assert.Contains(t, msg, "infeasible-stack-depth")
}

func TestDiagnosticIsMatchesByCode(t *testing.T) {
	a := New(NestingTooDeep, "too deep")
	b := New(NestingTooDeep, "different message, same code")
	c := New(UnresolvedName, "different code")

	assert.True(t, a.Is(b))
	assert.False(t, a.Is(c))
}

func TestDiagnosticsHasErrors(t *testing.T) {
	var empty Diagnostics
	assert.False(t, empty.HasErrors())

	withOne := Diagnostics{New(Unknown, "x")}
	assert.True(t, withOne.HasErrors())
}

func TestDiagnosticsErrorJoinsMessages(t *testing.T) {
	ds := Diagnostics{New(Unknown, "first"), New(UnresolvedCall, "second")}
	joined := ds.Error()
	assert.Contains(t, joined, "first")
	assert.Contains(t, joined, "second")
}

func TestUnknownCodeStringFallsBackToNumeric(t *testing.T) {
	assert.Equal(t, "code(99)", Code(99).String())
}
