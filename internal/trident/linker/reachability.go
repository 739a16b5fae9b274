package linker

import "strings"

// resolveTarget handles a call target not directly defined in the
// combined program: it may carry a caller-module prefix inadvertently
// prepended. Resolve by repeatedly stripping up to the first "__" separator until
// the suffix matches a known label. Bug-for-bug compatible with the
// upstream behavior this mirrors — see the Open Question in DESIGN.md.
func resolveTarget(target string, known map[string]bool) (string, bool) {
	if known[target] {
		return target, true
	}
	t := target
	for {
		idx := strings.Index(t, "__")
		if idx < 0 || idx+2 >= len(t) {
			return target, false
		}
		t = t[idx+2:]
		if known[t] {
			return t, true
		}
	}
}

// reachable performs a BFS from entry over the call graph, resolving
// each edge target before following it. It returns the set of visited
// labels and the list of edges that could not be resolved, so the
// caller can surface them as diagnostics without affecting the set.
func reachable(entry string, graph map[string][]string, known map[string]bool) (map[string]bool, []string) {
	visited := map[string]bool{}
	var unresolved []string
	if !known[entry] {
		return visited, unresolved
	}
	queue := []string{entry}
	visited[entry] = true
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, raw := range graph[cur] {
			target, ok := resolveTarget(raw, known)
			if !ok {
				unresolved = append(unresolved, raw)
				continue
			}
			if !visited[target] {
				visited[target] = true
				queue = append(queue, target)
			}
		}
	}
	return visited, unresolved
}
