// Package diag defines Trident's diagnostic taxonomy. The core never
// panics or returns a bare error for a compilation failure; it collects
// Diagnostics and returns them, following the propagation policy in the
// specification's error-handling section.
package diag

import (
	"fmt"
	"strings"
)

// Code classifies a diagnostic by the pipeline stage that raised it.
type Code int

const (
	// Unknown represents an unclassified diagnostic.
	Unknown Code = iota

	// NestingTooDeep: a structured statement nests past the builder's
	// inherited parser limit (256).
	NestingTooDeep

	// UnresolvedName: a front-end invariant was violated — the builder
	// was handed a name with no binding. Should not occur in practice.
	UnresolvedName

	// InfeasibleStackDepth: a construct's worst-case depth cannot be
	// realized even after spilling (e.g. a return block wider than the
	// scratch-backed epilogue strategies can restore).
	InfeasibleStackDepth

	// UnsupportedAbstractOp: a lowering was asked to expand an abstract
	// op it has no primitive-op sequence for.
	UnsupportedAbstractOp

	// UnresolvedCall: the linker could not resolve a call target even
	// after prefix-stripping.
	UnresolvedCall

	// MultipleEntryModules: more than one module carries the
	// program-entry flag.
	MultipleEntryModules

	// MissingEntryModule: no module carries the program-entry flag.
	MissingEntryModule
)

var codeNames = map[Code]string{
	Unknown:               "unknown",
	NestingTooDeep:        "nesting-too-deep",
	UnresolvedName:        "unresolved-name",
	InfeasibleStackDepth:  "infeasible-stack-depth",
	UnsupportedAbstractOp: "unsupported-abstract-op",
	UnresolvedCall:        "unresolved-call",
	MultipleEntryModules:  "multiple-entry-modules",
	MissingEntryModule:    "missing-entry-module",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Span is a source location, supplied opaquely by the front end. The core
// never interprets it beyond carrying it through to the caller.
type Span struct {
	File      string
	Line, Col int
	EndLine   int
	EndCol    int
}

// Diagnostic is one compiler-reported problem.
type Diagnostic struct {
	Code    Code
	Message string
	Span    *Span
	Cause   error
}

// Error implements error.
func (d *Diagnostic) Error() string {
	loc := ""
	if d.Span != nil {
		loc = fmt.Sprintf(" at %s:%d:%d", d.Span.File, d.Span.Line, d.Span.Col)
	}
	if d.Cause != nil {
		return fmt.Sprintf("trident: %s%s: %s (caused by: %v)", d.Code, loc, d.Message, d.Cause)
	}
	return fmt.Sprintf("trident: %s%s: %s", d.Code, loc, d.Message)
}

// Unwrap returns the wrapped cause, if any.
func (d *Diagnostic) Unwrap() error { return d.Cause }

// Is reports whether target is a Diagnostic with the same Code.
func (d *Diagnostic) Is(target error) bool {
	t, ok := target.(*Diagnostic)
	if !ok {
		return false
	}
	return d.Code == t.Code
}

// New constructs a Diagnostic with no span or cause.
func New(code Code, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs a Diagnostic wrapping an existing error as its cause.
func Wrap(code Code, cause error, format string, args ...interface{}) *Diagnostic {
	return &Diagnostic{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// At attaches a source span and returns the receiver for chaining.
func (d *Diagnostic) At(span Span) *Diagnostic {
	d.Span = &span
	return d
}

// Diagnostics is an ordered collection of Diagnostic, returned by every
// entry point in this module instead of raising an exception.
type Diagnostics []*Diagnostic

// Error implements error by joining each diagnostic's message.
func (ds Diagnostics) Error() string {
	msgs := make([]string, len(ds))
	for i, d := range ds {
		msgs[i] = d.Error()
	}
	return strings.Join(msgs, "\n")
}

// HasErrors reports whether the collection is non-empty.
func (ds Diagnostics) HasErrors() bool { return len(ds) > 0 }
