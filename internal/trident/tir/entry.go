package tir

// Entry is one modeled operand-stack slot: a named local or an anonymous
// temporary, occupying Width field elements.
type Entry struct {
	Name    string // "" for an anonymous temporary
	Width   int    // 1..5
	LastUse uint64 // LRU timestamp, set by the stack manager
}

// Anonymous reports whether this entry has no source-level name.
func (e Entry) Anonymous() bool { return e.Name == "" }

// NewTemp constructs an anonymous entry of the given width.
func NewTemp(width int) Entry { return Entry{Width: width} }

// NewNamed constructs a named entry of the given width.
func NewNamed(name string, width int) Entry { return Entry{Name: name, Width: width} }
