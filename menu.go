package main

import "strings"

// tab identifies which view has the body of the screen.
type tab int

const (
	tabSummary tab = iota
	tabProgram
	tabOutcomes
)

// tabItem is one entry of the tab bar.
type tabItem struct {
	name string
	key  string
	hint string
}

// tabBar defines the viewer tabs in display order.
var tabBar = []tabItem{
	{name: "Summary", key: "1", hint: "factors, base and program statistics"},
	{name: "Program", key: "2", hint: "OpenQASM of the order-finding program"},
	{name: "Outcomes", key: "3", hint: "decoded measurement outcomes"},
}

// next returns the tab after t, wrapping around.
func (t tab) next() tab { return (t + 1) % tab(len(tabBar)) }

// prev returns the tab before t, wrapping around.
func (t tab) prev() tab { return (t + tab(len(tabBar)) - 1) % tab(len(tabBar)) }

// tabForKey maps a digit key to its tab.
func tabForKey(key string) (tab, bool) {
	for i, item := range tabBar {
		if item.key == key {
			return tab(i), true
		}
	}
	return 0, false
}

// renderTabBar renders the tab labels with the active one highlighted.
func (m Model) renderTabBar() string {
	var sb strings.Builder

	for i, item := range tabBar {
		name := " " + item.key + " " + item.name + " "
		if tab(i) == m.active {
			sb.WriteString(activeTabStyle.Render(name))
		} else {
			sb.WriteString(dimStyle.Render(name))
		}
		if i < len(tabBar)-1 {
			sb.WriteString(dimStyle.Render("│"))
		}
	}
	sb.WriteString("  ")
	sb.WriteString(dimStyle.Render(tabBar[m.active].hint))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(strings.Repeat("─", max(m.width, 1))))

	return sb.String()
}
