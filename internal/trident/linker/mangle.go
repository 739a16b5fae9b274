package linker

import "strings"

// mangle rewrites every label definition and call target in text that
// carries the backend's pre-mangling "__name" convention into the
// module-prefixed form, leaving every other line untouched.
func mangle(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case isLabelDef(trimmed):
			name := strings.TrimSuffix(strings.TrimPrefix(trimmed, "__"), ":")
			lines[i] = prefix + name + ":"
		case strings.HasPrefix(trimmed, "call __"):
			name := strings.TrimPrefix(trimmed, "call __")
			lines[i] = "    call " + prefix + name
		}
	}
	return strings.Join(lines, "\n")
}

// isLabelDef reports whether a trimmed line is a pre-mangling label
// definition: no leading indentation, "__" prefix, ":" suffix.
func isLabelDef(trimmed string) bool {
	return strings.HasPrefix(trimmed, "__") && strings.HasSuffix(trimmed, ":")
}

// isMangledLabelDef reports whether a trimmed line is a label
// definition that has already been through mangle: unindented, ":"
// suffix, and not a call instruction.
func isMangledLabelDef(trimmed string) bool {
	if trimmed == "" || strings.HasPrefix(trimmed, "//") {
		return false
	}
	if !strings.HasSuffix(trimmed, ":") {
		return false
	}
	return !strings.Contains(trimmed, " ")
}
