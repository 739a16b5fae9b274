package trident

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tridentlang/trident/internal/trident/builder"
	"github.com/tridentlang/trident/internal/trident/diag"
	"github.com/tridentlang/trident/internal/trident/linker"
	"github.com/tridentlang/trident/internal/trident/lower"
	"github.com/tridentlang/trident/internal/trident/optimize"
)

// Compiler is the public interface for the Trident compiler.
type Compiler interface {
	// Compile lowers and links modules into one assembly program,
	// returning the linked text and every diagnostic collected along
	// the way. The text is returned even when diagnostics were
	// collected; every diagnostic counts as an error, so
	// Diagnostics.HasErrors is true whenever the slice is non-empty.
	Compile(modules []*Module) (string, Diagnostics)
}

// compilerImpl is the internal implementation of Compiler.
type compilerImpl struct {
	cfg *Config
	log *logrus.Entry
}

// NewCompiler constructs a Compiler bound to cfg. cfg is not copied;
// callers should not mutate it concurrently with Compile.
func NewCompiler(cfg *Config) (Compiler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &CompileError{Code: ErrInvalidConfig, Message: "invalid config: " + err.Error()}
	}
	if _, err := lower.ForTarget(cfg.Target); err != nil {
		return nil, &CompileError{Code: ErrUnknownTarget, Message: err.Error()}
	}
	return &compilerImpl{
		cfg: cfg,
		log: logrus.WithField("component", "trident"),
	}, nil
}

// Compile is the package-level convenience wrapper around
// NewCompiler(cfg).Compile(modules). A nil cfg uses DefaultConfig.
func Compile(cfg *Config, modules []*Module) (string, Diagnostics) {
	c, err := NewCompiler(cfg)
	if err != nil {
		return "", diag.Diagnostics{diag.New(diag.Unknown, "%s", err.Error())}
	}
	return c.Compile(modules)
}

// globalSignatures builds the cross-module return-width table every
// function body's call expressions resolve against, per
// builder.Signatures' doc comment: name resolution across module boundaries is settled
// before the builder runs, by the caller.
func globalSignatures(modules []*Module) builder.Signatures {
	sigs := make(builder.Signatures)
	for _, m := range modules {
		for _, fn := range m.Functions {
			sigs[fn.Name] = fn.Returns
		}
	}
	return sigs
}

// Compile lowers and links modules, logging one phase entry per module
// and one for the final link, in the ambient style of the surrounding
// CLI's structured logging.
func (c *compilerImpl) Compile(modules []*Module) (string, Diagnostics) {
	var diags diag.Diagnostics
	sigs := globalSignatures(modules)

	backend, err := lower.ForTarget(c.cfg.Target)
	if err != nil {
		diags = append(diags, diag.New(diag.Unknown, "%s", err.Error()))
		return "", diags
	}

	outputs := make([]linker.ModuleOutput, 0, len(modules))
	for _, m := range modules {
		text, modDiags := c.compileModule(m, sigs, backend)
		diags = append(diags, modDiags...)
		outputs = append(outputs, linker.ModuleOutput{
			ModuleName: m.Name,
			IsEntry:    m.IsEntry,
			Text:       text,
		})
		c.log.WithFields(logrus.Fields{
			"module":    m.Name,
			"functions": len(m.Functions),
			"is_entry":  m.IsEntry,
		}).Debug("module compiled")
	}

	linked, linkDiags := linker.New().Link(outputs)
	diags = append(diags, linkDiags...)
	c.log.WithFields(logrus.Fields{
		"modules":     len(modules),
		"diagnostics": len(diags),
	}).Debug("link complete")

	return linked, diags
}

// compileModule builds, optimizes and lowers every function of m,
// returning its concatenated assembly text and the diagnostics
// collected across all of its functions, following the whole-function
// collection policy.
func (c *compilerImpl) compileModule(m *Module, sigs builder.Signatures, backend lower.StackLowering) (string, diag.Diagnostics) {
	var diags diag.Diagnostics
	var lines []string

	for i, fn := range m.Functions {
		ops, buildDiags := builder.BuildFunction(c.cfg, sigs, fn)
		diags = append(diags, buildDiags...)

		optimized := optimize.NewPipeline().Run(ops)

		fnLines, lowerDiags := backend.Lower(optimized)
		diags = append(diags, lowerDiags...)

		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, fnLines...)
	}

	return strings.Join(lines, "\n"), diags
}
