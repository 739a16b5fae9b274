// Package lower translates an optimized TIR op stream into target
// assembly text. Lowering does not alter semantics; it only chooses
// instruction text and structural conventions.
package lower

import (
	"fmt"

	"github.com/tridentlang/trident/internal/trident/diag"
	"github.com/tridentlang/trident/internal/trident/tir"
)

// StackLowering translates a flat op stream (with nested structural
// bodies) into assembly lines for one target.
type StackLowering interface {
	TargetName() string
	Lower(ops []tir.Op) ([]string, diag.Diagnostics)
}

var registry = map[string]func() StackLowering{
	"triton": func() StackLowering { return NewTriton() },
}

// ForTarget constructs the lowering backend registered under name.
func ForTarget(name string) (StackLowering, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("lower: unknown target %q", name)
	}
	return factory(), nil
}
