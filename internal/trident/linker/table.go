package linker

import "strings"

// function is one label's extent in the combined, mangled line array:
// [start, end) where start is the label definition line and end is the
// next label definition's line (or the line count at end of input), so
// the range stops on the line before it.
type function struct {
	label      string
	start, end int
}

// buildFunctionTable scans mangled lines for label definitions and
// records each function's line range.
func buildFunctionTable(lines []string) []function {
	var table []function
	var current *function

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isMangledLabelDef(trimmed) {
			if current != nil {
				current.end = i
			}
			name := strings.TrimSuffix(trimmed, ":")
			table = append(table, function{label: name, start: i})
			current = &table[len(table)-1]
			continue
		}
	}
	if current != nil {
		current.end = len(lines)
	}
	return table
}

// callGraph records, for each function label, the raw (unresolved)
// call targets its body names — plain calls and recurse self-edges —
// by scanning each function's body for call and recurse instructions.
func buildCallGraph(lines []string, table []function) map[string][]string {
	graph := make(map[string][]string, len(table))
	for _, fn := range table {
		var targets []string
		for i := fn.start + 1; i < fn.end; i++ {
			trimmed := strings.TrimSpace(lines[i])
			switch {
			case strings.HasPrefix(trimmed, "call "):
				targets = append(targets, strings.TrimPrefix(trimmed, "call "))
			case trimmed == "recurse":
				targets = append(targets, fn.label)
			}
		}
		graph[fn.label] = targets
	}
	return graph
}
