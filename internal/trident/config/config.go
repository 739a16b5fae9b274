// Package config carries the static limits and target selection that
// bound compiler behavior, using the same fluent-builder pattern as
// the rest of the codebase's configuration types.
package config

import "fmt"

// Config holds the compile-time limits enforced by the builder, optimizer
// and linker, plus the selected lowering target.
type Config struct {
	// ScratchBase is the first address of the scratch RAM region used for
	// spills and builder-allocated temporaries.
	ScratchBase uint64

	// MaxStackDepth is the hardware operand-stack depth limit.
	MaxStackDepth int

	// MaxSwapDepth is the largest depth Swap/Dup may address directly.
	MaxSwapDepth int

	// MaxPopBatch is the largest single Pop's count.
	MaxPopBatch int

	// MaxNestingDepth is the parser-inherited structured-statement
	// nesting cap the builder also enforces.
	MaxNestingDepth int

	// Target names the lowering backend, e.g. "triton".
	Target string
}

// Default returns Trident's Triton-shaped defaults.
func Default() *Config {
	return &Config{
		ScratchBase:     1 << 30,
		MaxStackDepth:   16,
		MaxSwapDepth:    15,
		MaxPopBatch:     5,
		MaxNestingDepth: 256,
		Target:          "triton",
	}
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.MaxStackDepth <= 0 {
		return fmt.Errorf("max stack depth must be positive")
	}
	if c.MaxSwapDepth < 0 || c.MaxSwapDepth >= c.MaxStackDepth {
		return fmt.Errorf("max swap depth (%d) must be in [0, max stack depth %d)", c.MaxSwapDepth, c.MaxStackDepth)
	}
	if c.MaxPopBatch <= 0 {
		return fmt.Errorf("max pop batch must be positive")
	}
	if c.MaxNestingDepth <= 0 {
		return fmt.Errorf("max nesting depth must be positive")
	}
	if c.Target == "" {
		return fmt.Errorf("target must not be empty")
	}
	return nil
}

// WithScratchBase sets the scratch RAM base address.
func (c *Config) WithScratchBase(base uint64) *Config {
	c.ScratchBase = base
	return c
}

// WithTarget sets the lowering target name.
func (c *Config) WithTarget(target string) *Config {
	c.Target = target
	return c
}

// Clone returns a copy of c.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
