package trident

import (
	"github.com/tridentlang/trident/internal/trident/ast"
	"github.com/tridentlang/trident/internal/trident/config"
	"github.com/tridentlang/trident/internal/trident/diag"
)

// Module is a Trident source module: a dotted name, an entry flag, and
// its functions. This is the public alias for the AST type a front end
// constructs and hands to Compile.
type Module = ast.Module

// Function is one module-level function body.
type Function = ast.Function

// Param is one function parameter.
type Param = ast.Param

// Type is a Trident value type (scalar, digest, extension or tuple).
type Type = ast.Type

// Diagnostics is the ordered collection of problems a compile stage can
// report, returned alongside every result instead of a single error.
type Diagnostics = diag.Diagnostics

// Config carries the compile-time limits and target selection that
// bound builder, optimizer and linker behavior.
type Config = config.Config

// DefaultConfig returns Trident's Triton-shaped default configuration.
func DefaultConfig() *Config {
	return config.Default()
}
