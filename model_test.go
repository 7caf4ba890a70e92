package main

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runModel(t *testing.T, cfg Config, n uint64) Model {
	t.Helper()
	f := newTestFactorer(t, cfg)
	m := newModel(context.Background(), f, n)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = updated.(Model)
	assert.Contains(t, m.View(), "factoring")

	msg := m.factorCmd()()
	updated, _ = m.Update(msg)
	return updated.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelShortcut(t *testing.T) {
	m := runModel(t, Config{Seed: 1}, 9)
	require.False(t, m.running)

	view := m.View()
	assert.Contains(t, view, "Factoring N = 9")
	assert.Contains(t, view, "Early result found: 3 3")
	assert.Contains(t, view, "perfect power")
	assert.NotContains(t, view, "factoring 9")

	updated, _ := m.Update(key("2"))
	m = updated.(Model)
	assert.Equal(t, tabProgram, m.active)
	assert.Contains(t, m.View(), "no program was built")
}

func TestModelOutcomes(t *testing.T) {
	m := runModel(t, Config{Seed: 2, Base: 7, Shots: 16}, 15)
	require.NoError(t, m.err)
	require.NotNil(t, m.result)

	view := m.View()
	assert.Contains(t, view, "Factors of 15 are")
	assert.Contains(t, view, "widest layer")
	assert.Contains(t, view, "m=")

	updated, _ := m.Update(key("tab"))
	m = updated.(Model)
	assert.Equal(t, tabProgram, m.active)
	assert.Contains(t, m.View(), "OPENQASM 2.0;")

	updated, _ = m.Update(key("tab"))
	m = updated.(Model)
	assert.Equal(t, tabOutcomes, m.active)
	assert.NotEmpty(t, m.outcomes.Rows())
	assert.Contains(t, m.View(), "Bitstring")

	updated, _ = m.Update(key("tab"))
	m = updated.(Model)
	assert.Equal(t, tabSummary, m.active)

	updated, _ = m.Update(key("left"))
	m = updated.(Model)
	assert.Equal(t, tabOutcomes, m.active)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelError(t *testing.T) {
	m := runModel(t, Config{Seed: 1}, 1)
	assert.ErrorIs(t, m.err, ErrInvalidInput)
	assert.Contains(t, m.View(), "N must be an integer >= 2")
}

func TestModelPrime(t *testing.T) {
	m := runModel(t, Config{Seed: 1}, 13)
	require.NoError(t, m.err)
	view := m.View()
	assert.Contains(t, view, "no factors found")
	assert.Contains(t, view, "N is prime")
}

func TestTabNavigation(t *testing.T) {
	assert.Equal(t, tabProgram, tabSummary.next())
	assert.Equal(t, tabSummary, tabOutcomes.next())
	assert.Equal(t, tabOutcomes, tabSummary.prev())

	tb, ok := tabForKey("3")
	assert.True(t, ok)
	assert.Equal(t, tabOutcomes, tb)
	_, ok = tabForKey("9")
	assert.False(t, ok)
}

func TestOverlayHelpers(t *testing.T) {
	assert.Equal(t, "  ab  ", padCenter("ab", 6))
	assert.Equal(t, "abc", padCenter("abcdef", 3))

	styled := "\x1b[1mbold\x1b[0m text"
	assert.Equal(t, 9, visibleLen(styled))

	bg := strings.Join([]string{"..........", "..........", ".........."}, "\n")
	got := overlayAt(bg, "XY\nZW", 3, 1)
	assert.Equal(t, "..........\n...XY.....\n...ZW.....", got)

	assert.Equal(t, "\x1b[1mboXY", spliceLineAt("\x1b[1mbo\x1b[0m", "XY", 2))
	assert.Equal(t, "ab  XY", spliceLineAt("ab", "XY", 4))
}
