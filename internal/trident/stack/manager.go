// Package stack models the target machine's operand stack during TIR
// construction: it tracks named and anonymous entries, spills the
// least-recently-used named entry to scratch RAM when the physical depth
// limit would be exceeded, and reloads on demand.
package stack

import (
	"fmt"

	"github.com/tridentlang/trident/internal/trident/config"
	"github.com/tridentlang/trident/internal/trident/tir"
)

// SpillSlot records where a spilled variable lives in scratch RAM.
type SpillSlot struct {
	Base    uint64
	Width   int
	LastUse uint64
}

// Manager owns the symbolic operand stack for one function body. It is
// reset (via New) between functions; nothing about it is shared.
type Manager struct {
	cfg *config.Config

	// entries holds live stack entries, top at index 0.
	entries []tir.Entry

	// spilled maps a variable name to its scratch location while it is
	// not live on the stack.
	spilled map[string]SpillSlot

	nextScratch uint64
	clock       uint64
}

// New constructs a Manager with an empty stack, scratch allocation
// starting at cfg.ScratchBase.
func New(cfg *config.Config) *Manager {
	return &Manager{
		cfg:         cfg,
		spilled:     make(map[string]SpillSlot),
		nextScratch: cfg.ScratchBase,
	}
}

// Depth returns the physical stack depth: the sum of materialized entry
// widths.
func (m *Manager) Depth() int {
	total := 0
	for _, e := range m.entries {
		total += e.Width
	}
	return total
}

// tick advances the LRU clock and returns the new value.
func (m *Manager) tick() uint64 {
	m.clock++
	return m.clock
}

// PushNamed models pushing a new named entry of the given width, spilling
// an LRU victim first if the push would exceed the physical depth limit.
// protectDepths lists stack depths (0-indexed from top, pre-push) that
// must not be evicted because they are operands of the in-flight
// operation. It returns the spill sequence to append to the TIR buffer,
// if any.
func (m *Manager) PushNamed(name string, width int, protectDepths ...int) ([]tir.Op, error) {
	ops, err := m.makeRoom(width, protectDepths)
	if err != nil {
		return nil, err
	}
	e := tir.NewNamed(name, width)
	e.LastUse = m.tick()
	m.entries = append([]tir.Entry{e}, m.entries...)
	return ops, nil
}

// PushTemp models pushing an anonymous entry; same overflow handling as
// PushNamed.
func (m *Manager) PushTemp(width int, protectDepths ...int) ([]tir.Op, error) {
	ops, err := m.makeRoom(width, protectDepths)
	if err != nil {
		return nil, err
	}
	e := tir.NewTemp(width)
	e.LastUse = m.tick()
	m.entries = append([]tir.Entry{e}, m.entries...)
	return ops, nil
}

// makeRoom spills LRU victims until pushing `width` more elements would
// not exceed MaxStackDepth.
func (m *Manager) makeRoom(width int, protectDepths []int) ([]tir.Op, error) {
	var ops []tir.Op
	for m.Depth()+width > m.cfg.MaxStackDepth {
		idx, err := m.lruVictim(protectDepths)
		if err != nil {
			return nil, err
		}
		ops = append(ops, m.spillAt(idx)...)
	}
	return ops, nil
}

// lruVictim selects the index (within m.entries) of the named entry with
// the smallest LastUse, breaking ties by greatest depth (deepest-first).
// Anonymous entries and depths listed in protect are never eligible.
func (m *Manager) lruVictim(protect []int) (int, error) {
	protected := make(map[int]bool, len(protect))
	for _, p := range protect {
		protected[p] = true
	}

	depth := 0
	best := -1
	bestUse := uint64(0)
	bestDepth := -1
	for i, e := range m.entries {
		d := depth
		depth += e.Width
		if e.Anonymous() || protected[d] {
			continue
		}
		if best == -1 || e.LastUse < bestUse || (e.LastUse == bestUse && d > bestDepth) {
			best, bestUse, bestDepth = i, e.LastUse, d
		}
	}
	if best == -1 {
		return 0, fmt.Errorf("stack: no spillable entry to relieve depth pressure")
	}
	return best, nil
}

// spillAt removes entries[idx] from the model, writes it into a freshly
// allocated scratch slot, and returns the spill sequence. idx is an index
// into m.entries, not a field-element depth; the physical depth of that
// entry (what Swap must address) is the sum of the widths above it.
func (m *Manager) spillAt(idx int) []tir.Op {
	fieldDepth := 0
	for i := 0; i < idx; i++ {
		fieldDepth += m.entries[i].Width
	}

	victim := m.entries[idx]
	m.entries = append(m.entries[:idx], m.entries[idx+1:]...)

	base := m.AllocScratch(victim.Width)
	if victim.Name != "" {
		m.spilled[victim.Name] = SpillSlot{Base: base, Width: victim.Width, LastUse: victim.LastUse}
	}
	return spillSequence(fieldDepth, victim.Width, base)
}

// spillSequence emits the per-element write pattern the
// optimizer later recognizes for dead-store and pair elimination: for an
// entry at model-depth idx..idx+width-1, each element is individually
// addressed, swapped to the top, written, and popped.
func spillSequence(depth, width int, base uint64) []tir.Op {
	ops := make([]tir.Op, 0, width*4)
	for i := 0; i < width; i++ {
		d := uint8(depth + 1)
		ops = append(ops,
			tir.Push(base+uint64(i)),
			tir.Swap(d),
			tir.WriteMem(1),
			tir.Pop(1),
		)
	}
	return ops
}

// reloadSequence mirrors spillSequence: one element at a time, address
// then read then discard the leftover address slot.
func reloadSequence(width int, base uint64) []tir.Op {
	ops := make([]tir.Op, 0, width*3)
	for i := width - 1; i >= 0; i-- {
		ops = append(ops,
			tir.Push(base+uint64(i)),
			tir.ReadMem(1),
			tir.Pop(1),
		)
	}
	return ops
}

// AllocScratch bumps the scratch cursor by width and returns the base
// address of the allocation. Scratch is never freed within a compile
// unit.
func (m *Manager) AllocScratch(width int) uint64 {
	base := m.nextScratch
	m.nextScratch += uint64(width)
	return base
}

// AccessVar resolves a variable reference: if it is live on the stack,
// its current depth is returned directly; if it was spilled, LRU victims
// are spilled first when the reload would exceed the depth limit, a reload
// sequence is emitted and the variable becomes live at depth 0 again. It
// is a builder error (UnresolvedName, a front-end invariant) to access a
// name that is neither live nor spilled.
func (m *Manager) AccessVar(name string) (depth int, ops []tir.Op, err error) {
	d := 0
	for i, e := range m.entries {
		if e.Name == name {
			m.entries[i].LastUse = m.tick()
			return d, nil, nil
		}
		d += e.Width
	}

	slot, ok := m.spilled[name]
	if !ok {
		return 0, nil, fmt.Errorf("stack: unresolved name %q", name)
	}
	spillOps, err := m.makeRoom(slot.Width, nil)
	if err != nil {
		return 0, nil, err
	}
	ops = append(spillOps, reloadSequence(slot.Width, slot.Base)...)
	delete(m.spilled, name)

	e := tir.NewNamed(name, slot.Width)
	e.LastUse = m.tick()
	m.entries = append([]tir.Entry{e}, m.entries...)
	return 0, ops, nil
}

// Pop removes the top entry from the model.
func (m *Manager) Pop() {
	if len(m.entries) == 0 {
		return
	}
	m.entries = m.entries[1:]
}

// PopMany removes n entries from the top of the model.
func (m *Manager) PopMany(n int) {
	if n > len(m.entries) {
		n = len(m.entries)
	}
	m.entries = m.entries[n:]
}

// SpillAllNamed spills every named entry still on the stack, used at
// function boundaries, deferred-block entries, and control-flow joins to
// guarantee a known stack shape. Anonymous temporaries are left in place.
func (m *Manager) SpillAllNamed() []tir.Op {
	return m.SpillAllNamedExcept()
}

// SpillAllNamedExcept spills every named entry still on the stack other
// than those listed in except, which are left live in place. Used by a
// counted loop to canonicalize every local but the loop counter itself,
// which a structural Loop node's lowering requires to stay physically on
// top of the stack across the call/recurse boundary.
func (m *Manager) SpillAllNamedExcept(except ...string) []tir.Op {
	keep := make(map[string]bool, len(except))
	for _, n := range except {
		keep[n] = true
	}

	var ops []tir.Op
	idx := 0
	for idx < len(m.entries) {
		e := m.entries[idx]
		if e.Anonymous() || keep[e.Name] {
			idx++
			continue
		}
		ops = append(ops, m.spillAt(idx)...)
		// spillAt removed entries[idx]; the next entry has slid into idx.
	}
	return ops
}

// Entries returns a snapshot of the live stack, top first. Callers must
// not mutate the result.
func (m *Manager) Entries() []tir.Entry {
	out := make([]tir.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// NextScratch exposes the current scratch-allocation cursor for
// diagnostics and tests.
func (m *Manager) NextScratch() uint64 { return m.nextScratch }

// Clone returns an independent copy of m, used when a builder forks into
// sub-builders for an if/else or loop body that each need their own
// mutable view of an otherwise-shared, already-canonicalized stack shape.
func (m *Manager) Clone() *Manager {
	clone := &Manager{
		cfg:         m.cfg,
		entries:     append([]tir.Entry(nil), m.entries...),
		spilled:     make(map[string]SpillSlot, len(m.spilled)),
		nextScratch: m.nextScratch,
		clock:       m.clock,
	}
	for k, v := range m.spilled {
		clone.spilled[k] = v
	}
	return clone
}

// RenameTop binds name to the entry currently on top of the stack (used
// by `let x = e`: e has already been lowered onto the top of the stack as
// an anonymous temporary, and this records it under its declared name
// with no code emitted).
func (m *Manager) RenameTop(name string) error {
	if len(m.entries) == 0 {
		return fmt.Errorf("stack: rename of %q with empty stack", name)
	}
	m.entries[0].Name = name
	m.entries[0].LastUse = m.tick()
	return nil
}

// Overwrite replaces the value bound to name with the anonymous value
// currently on top of the stack, in place. If name is live on the stack,
// it emits a swap-then-pop that rotates the new value down to the old
// one's depth and discards the stale value, leaving the new value at that
// depth. If name was spilled, the new value is written to its existing
// scratch slot (address reused, no fresh allocation) and the top entry is
// removed from the model.
func (m *Manager) Overwrite(name string) ([]tir.Op, error) {
	if len(m.entries) == 0 {
		return nil, fmt.Errorf("stack: overwrite of %q with empty stack", name)
	}
	newEntry := m.entries[0]
	newWidth := newEntry.Width

	fieldDepth := 0
	for i := 1; i < len(m.entries); i++ {
		e := m.entries[i]
		if e.Name == name {
			if e.Width != newWidth {
				return nil, fmt.Errorf("stack: width mismatch overwriting %q (%d != %d)", name, e.Width, newWidth)
			}
			ops := overwriteInPlace(fieldDepth, newWidth)
			newEntry.Name = name
			newEntry.LastUse = m.tick()
			rest := make([]tir.Entry, 0, len(m.entries)-1)
			rest = append(rest, m.entries[1:i]...)
			rest = append(rest, newEntry)
			rest = append(rest, m.entries[i+1:]...)
			m.entries = rest
			return ops, nil
		}
		fieldDepth += e.Width
	}

	slot, ok := m.spilled[name]
	if !ok {
		return nil, fmt.Errorf("stack: unresolved name %q", name)
	}
	if slot.Width != newWidth {
		return nil, fmt.Errorf("stack: width mismatch overwriting spilled %q (%d != %d)", name, slot.Width, newWidth)
	}
	ops := spillSequence(0, newWidth, slot.Base)
	m.entries = m.entries[1:]
	slot.LastUse = m.tick()
	m.spilled[name] = slot
	return ops, nil
}

// overwriteInPlace rotates the top `width`-wide block down past the
// stale entry at fieldDepth and discards the stale entry, per element:
// Swap(fieldDepth+width); Pop(1) repeated width times.
func overwriteInPlace(fieldDepth, width int) []tir.Op {
	ops := make([]tir.Op, 0, width*2)
	for i := 0; i < width; i++ {
		ops = append(ops, tir.Swap(uint8(fieldDepth+width)), tir.Pop(1))
	}
	return ops
}
