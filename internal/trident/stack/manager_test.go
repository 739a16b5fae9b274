package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tridentlang/trident/internal/trident/config"
	"github.com/tridentlang/trident/internal/trident/tir"
)

func testConfig() *config.Config {
	return config.Default()
}

func TestPushNamedWithinCapacity(t *testing.T) {
	m := New(testConfig())
	ops, err := m.PushNamed("a", 1)
	require.NoError(t, err)
	assert.Empty(t, ops)
	assert.Equal(t, 1, m.Depth())
}

func TestAccessVarResolvesLiveEntry(t *testing.T) {
	m := New(testConfig())
	_, err := m.PushNamed("a", 1)
	require.NoError(t, err)
	_, err = m.PushNamed("b", 1)
	require.NoError(t, err)

	depth, ops, err := m.AccessVar("a")
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
	assert.Nil(t, ops)
}

func TestAccessVarUnresolvedNameErrors(t *testing.T) {
	m := New(testConfig())
	_, _, err := m.AccessVar("ghost")
	assert.Error(t, err)
}

// TestSpillOnOverflowAndReload drives seventeen one-element locals
// through a sixteen-slot stack: the oldest-used local must spill, and
// accessing it again must emit a reload sequence and bring the model
// back to a consistent depth.
func TestSpillOnOverflowAndReload(t *testing.T) {
	cfg := testConfig()
	m := New(cfg)

	var spillOps []tir.Op
	for i := 0; i < cfg.MaxStackDepth; i++ {
		ops, err := m.PushNamed(name(i), 1)
		require.NoError(t, err)
		spillOps = append(spillOps, ops...)
	}
	assert.Empty(t, spillOps)
	assert.Equal(t, cfg.MaxStackDepth, m.Depth())

	ops, err := m.PushNamed(name(cfg.MaxStackDepth), 1)
	require.NoError(t, err)
	require.NotEmpty(t, ops, "pushing past the depth limit must spill a victim")
	assert.Equal(t, cfg.MaxStackDepth, m.Depth())

	_, found := m.spilled[name(0)]
	assert.True(t, found, "the least-recently-used local should be the spill victim")

	depth, reload, err := m.AccessVar(name(0))
	require.NoError(t, err)
	assert.Equal(t, 0, depth)
	assert.NotEmpty(t, reload)
	_, stillSpilled := m.spilled[name(0)]
	assert.False(t, stillSpilled)
}

func TestSpillAllNamedIgnoresAnonymous(t *testing.T) {
	m := New(testConfig())
	_, err := m.PushTemp(1)
	require.NoError(t, err)
	_, err = m.PushNamed("a", 1)
	require.NoError(t, err)

	ops := m.SpillAllNamed()
	assert.NotEmpty(t, ops)
	entries := m.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Anonymous())
}

func TestSpillAllNamedExceptKeepsExcludedNameLive(t *testing.T) {
	m := New(testConfig())
	_, err := m.PushNamed("a", 1)
	require.NoError(t, err)
	_, err = m.PushNamed("counter", 1)
	require.NoError(t, err)

	ops := m.SpillAllNamedExcept("counter")
	assert.NotEmpty(t, ops, "the other named entry must still spill")

	entries := m.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "counter", entries[0].Name)

	_, stillSpilled := m.spilled["counter"]
	assert.False(t, stillSpilled)
	_, aSpilled := m.spilled["a"]
	assert.True(t, aSpilled)
}

func TestRenameTopBindsWithoutEmittingCode(t *testing.T) {
	m := New(testConfig())
	_, err := m.PushTemp(1)
	require.NoError(t, err)
	require.NoError(t, m.RenameTop("x"))
	entries := m.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "x", entries[0].Name)
}

func TestOverwriteLiveEntryRotatesDownAndDiscards(t *testing.T) {
	m := New(testConfig())
	_, err := m.PushNamed("x", 1)
	require.NoError(t, err)
	_, err = m.PushTemp(1)
	require.NoError(t, err)

	ops, err := m.Overwrite("x")
	require.NoError(t, err)
	assert.NotEmpty(t, ops)

	entries := m.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "x", entries[0].Name)
}

func TestOverwriteWidthMismatchErrors(t *testing.T) {
	m := New(testConfig())
	_, err := m.PushNamed("x", 1)
	require.NoError(t, err)
	_, err = m.PushTemp(2)
	require.NoError(t, err)

	_, err = m.Overwrite("x")
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	m := New(testConfig())
	_, err := m.PushNamed("x", 1)
	require.NoError(t, err)

	clone := m.Clone()
	_, err = clone.PushNamed("y", 1)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Depth())
	assert.Equal(t, 2, clone.Depth())
}

func name(i int) string {
	return string(rune('a' + i))
}
