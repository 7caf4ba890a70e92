package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
)

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given width.
func padCenter(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	total := width - len(s)
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

// field renders one "label  value" summary line.
func field(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) + value + "\n"
}

func joinUints(vs []uint64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatUint(v, 10)
	}
	return strings.Join(parts, ", ")
}

// ──────────────────────────── Tab bodies ────────────────────────────

// renderSummary renders the Summary tab.
func renderSummary(n uint64, res *Result, err error, width int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Factoring N = %d", n)))
	sb.WriteString("\n\n")

	if err != nil {
		sb.WriteString(errorStyle.Render(err.Error()))
		sb.WriteString("\n")
		return sb.String()
	}

	for _, line := range res.Lines() {
		if res.Factor != 0 {
			sb.WriteString(successStyle.Render(line))
		} else {
			sb.WriteString(errorStyle.Render(line))
		}
		sb.WriteString("\n")
	}
	if res.Shortcut != nil {
		sb.WriteString(dimStyle.Render("classical check: " + res.Shortcut.Reason))
		sb.WriteString("\n")
	}
	if res.Prime {
		sb.WriteString(dimStyle.Render("classical check: N is prime"))
		sb.WriteString("\n")
	}

	for i, t := range res.Trials {
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render(strings.Repeat("─", min(max(width, 1), 48))))
		sb.WriteString("\n")
		sb.WriteString(field("trial", strconv.Itoa(i+1)))
		sb.WriteString(field("base a", strconv.FormatUint(t.Base, 10)))
		if t.Shortcut != nil {
			sb.WriteString(field("shortcut", t.Shortcut.Reason))
			continue
		}
		if t.Program != nil {
			st := t.Program.Stats
			sb.WriteString(field("qubits", strconv.Itoa(st.Qubits)))
			sb.WriteString(field("phase bits", strconv.Itoa(t.Program.Rounds())))
			sb.WriteString(field("gates", strconv.Itoa(st.Gates)))
			sb.WriteString(field("depth", strconv.Itoa(st.Depth)))
			sb.WriteString(field("widest layer", strconv.Itoa(st.MaxWidth)))
			sb.WriteString(field("measurements", strconv.Itoa(st.Measurements)))
			sb.WriteString(field("conditioned", strconv.Itoa(st.Conditioned)))
			sb.WriteString(field("max controls", strconv.Itoa(st.MaxControls)))
			sb.WriteString(field("gate mix", gateMix(st.ByType)))
			sb.WriteString(field("per register", registerLoad(t.Program)))
			sb.WriteString(field("powers", joinUints(t.Program.Powers)))
		}
		sb.WriteString(field("shots", strconv.Itoa(t.Report.Shots)))
		sb.WriteString(field("outcomes", strconv.Itoa(len(t.Report.Outcomes))))
		sb.WriteString(field("successes", strconv.Itoa(t.Report.Successes)))
	}

	return sb.String()
}

func gateMix(byType map[string]int) string {
	kinds := make([]string, 0, len(byType))
	for k := range byType {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%s=%d", k, byType[k])
	}
	return strings.Join(parts, " ")
}

// registerLoad lists gate counts per register in declaration order.
func registerLoad(p *Program) string {
	parts := make([]string, 0, len(p.Circuit.Qregs))
	for _, reg := range p.Circuit.Qregs {
		parts = append(parts, fmt.Sprintf("%s=%d", reg.Name, p.Stats.ByRegister[reg.Name]))
	}
	return strings.Join(parts, " ")
}

// renderProgram renders the Program tab: the last compiled program as QASM.
func renderProgram(res *Result) string {
	t := res.lastProgramTrial()
	if t == nil {
		return dimStyle.Render("no program was built")
	}
	return t.Program.Circuit.ToQASM()
}

// lastProgramTrial returns the most recent trial that built a program.
func (r *Result) lastProgramTrial() *Trial {
	if r == nil {
		return nil
	}
	for i := len(r.Trials) - 1; i >= 0; i-- {
		if r.Trials[i].Program != nil {
			return &r.Trials[i]
		}
	}
	return nil
}

func outcomeColumns() []table.Column {
	return []table.Column{
		{Title: "Bitstring", Width: bitstringW},
		{Title: "Count", Width: 6},
		{Title: "y", Width: 8},
		{Title: "Phase", Width: phaseW},
		{Title: "Order", Width: 6},
		{Title: "Factors", Width: 10},
		{Title: "Reason", Width: 20},
	}
}

// outcomeRows renders the decoded outcomes of the last simulated trial.
func outcomeRows(res *Result) []table.Row {
	t := res.lastProgramTrial()
	if t == nil {
		return nil
	}
	rows := make([]table.Row, 0, len(t.Report.Outcomes))
	for _, o := range t.Report.Outcomes {
		order := "-"
		if o.Order != 0 {
			order = strconv.FormatUint(o.Order, 10)
		}
		rows = append(rows, table.Row{
			o.Bitstring,
			strconv.Itoa(o.Count),
			strconv.FormatUint(o.Measured, 10),
			o.Phase.StringFixed(int32(min(len(o.Bitstring), phaseW-2))),
			order,
			joinUints(o.Factors),
			o.Reason,
		})
	}
	return rows
}

// ──────────────────────────── Panel rendering ────────────────────────────

// renderHelpPanel renders the bottom help bar.
func (m Model) renderHelpPanel(width int) string {
	var sb strings.Builder

	sb.WriteString(keyStyle.Render("Navigate: "))
	sb.WriteString("←→/hl/Tab Switch tab  1-3 Jump to tab  ↑↓/jk Scroll")
	sb.WriteString("\n")
	sb.WriteString(keyStyle.Render("Actions:  "))
	sb.WriteString("q/Esc/^C Quit")

	return helpStyle.Width(width).Render(sb.String())
}

// renderProgress renders the popup shown while the pipeline runs.
func (m Model) renderProgress() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(padCenter("Working", 24)))
	sb.WriteString("\n\n")
	sb.WriteString(m.spinner.View())
	sb.WriteString(fmt.Sprintf(" factoring %d", m.n))
	return popupStyle.Render(sb.String())
}

// ──────────────────────────── Overlay helpers ────────────────────────────

// overlayAt composites the overlay string on top of the background at position (x, y).
// It handles ANSI escape sequences by tracking visible column positions.
func overlayAt(bg, overlay string, x, y int) string {
	bgLines := strings.Split(bg, "\n")
	ovLines := strings.Split(overlay, "\n")

	for i, ovLine := range ovLines {
		bgIdx := y + i
		if bgIdx < 0 || bgIdx >= len(bgLines) {
			continue
		}
		bgLines[bgIdx] = spliceLineAt(bgLines[bgIdx], ovLine, x)
	}
	return strings.Join(bgLines, "\n")
}

// isEscEnd reports whether r terminates an ANSI escape sequence.
func isEscEnd(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
}

// spliceLineAt replaces visible columns starting at x in bgLine with overlay.
func spliceLineAt(bgLine, overlay string, x int) string {
	runes := []rune(bgLine)
	ovWidth := visibleLen(overlay)

	var prefix, suffix strings.Builder
	col, i := 0, 0

	for i < len(runes) && col < x {
		if runes[i] != '\x1b' {
			prefix.WriteRune(runes[i])
			col++
			i++
			continue
		}
		for i < len(runes) {
			r := runes[i]
			prefix.WriteRune(r)
			i++
			if r != '\x1b' && r != '[' && isEscEnd(r) {
				break
			}
		}
	}
	for ; col < x; col++ {
		prefix.WriteRune(' ')
	}

	for skipped := 0; i < len(runes) && skipped < ovWidth; {
		if runes[i] != '\x1b' {
			skipped++
			i++
			continue
		}
		for i < len(runes) {
			r := runes[i]
			i++
			if r != '\x1b' && r != '[' && isEscEnd(r) {
				break
			}
		}
	}

	suffix.WriteString(string(runes[i:]))
	return prefix.String() + overlay + suffix.String()
}

// visibleLen returns the number of visible (non-ANSI-escape) characters in a string.
func visibleLen(s string) int {
	n := 0
	inEsc := false
	for _, r := range s {
		if r == '\x1b' {
			inEsc = true
			continue
		}
		if inEsc {
			if isEscEnd(r) {
				inEsc = false
			}
			continue
		}
		n++
	}
	return n
}
