package linker

import (
	"strings"

	"github.com/tridentlang/trident/internal/trident/diag"
	"github.com/tridentlang/trident/internal/trident/naming"
)

// Linker combines a set of compiled modules into one linked program.
type Linker struct{}

// New constructs a Linker. It carries no state between calls.
func New() *Linker { return &Linker{} }

// Link runs the full linking algorithm: mangle, scan, build the call
// graph, resolve cross-module calls, compute reachability from the
// entry, and emit the preamble plus every reachable function's text in
// source order.
func (l *Linker) Link(modules []ModuleOutput) (string, diag.Diagnostics) {
	var diags diag.Diagnostics

	entryCount := 0
	entryPrefix := ""
	for _, m := range modules {
		if m.IsEntry {
			entryCount++
			entryPrefix = naming.MangledPrefix(m.ModuleName)
		}
	}
	if entryCount > 1 {
		diags = append(diags, diag.New(diag.MultipleEntryModules,
			"linker: %d modules flagged as program entry, expected at most one", entryCount))
	}

	var allLines []string
	for _, m := range modules {
		prefix := naming.MangledPrefix(m.ModuleName)
		allLines = append(allLines, strings.Split(mangle(m.Text, prefix), "\n")...)
	}

	table := buildFunctionTable(allLines)
	known := make(map[string]bool, len(table))
	for _, fn := range table {
		known[fn.label] = true
	}
	graph := buildCallGraph(allLines, table)

	entry := entryPrefix + "main"
	if entryCount == 0 {
		entry = "__undefined_entry__"
	}

	visited, unresolved := reachable(entry, graph, known)
	for _, target := range unresolved {
		diags = append(diags, diag.New(diag.UnresolvedCall,
			"linker: call target %q could not be resolved", target))
	}

	out := []string{"    call " + entry, "    halt", ""}
	for _, fn := range table {
		if !visited[fn.label] {
			continue
		}
		out = append(out, allLines[fn.start:fn.end]...)
		out = append(out, "")
	}

	return strings.Join(out, "\n"), diags
}
