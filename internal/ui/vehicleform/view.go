package vehicleform

import (
	"strings"

	"rideshare_backend/internal/autocomplete"

	"github.com/charmbracelet/lipgloss"
)

const labelWidth = 10

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle     = lipgloss.NewStyle().Width(labelWidth).Foreground(lipgloss.Color("245"))
	focusedLabel   = labelStyle.Foreground(lipgloss.Color("15")).Bold(true)
	itemStyle      = lipgloss.NewStyle().PaddingLeft(labelWidth + 2)
	highlightStyle = itemStyle.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12"))
	secondaryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// fieldRow is where one field sits on screen. View and the mouse handler
// both derive positions from layout so clicks hit what was drawn.
type fieldRow struct {
	inputY  int
	listLen int
	visible []autocomplete.Candidate
}

func (m *Model) layout() []fieldRow {
	rows := make([]fieldRow, len(m.fields))
	y := headerRows
	for i, f := range m.fields {
		r := fieldRow{inputY: y}
		if f.sel.State().IsOpen() {
			r.visible = f.sel.Visible()
			if len(r.visible) > maxListRows {
				r.visible = r.visible[:maxListRows]
			}
			r.listLen = len(r.visible)
		}
		rows[i] = r
		y += 1 + r.listLen
	}
	return rows
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Register vehicle"))
	b.WriteString("\n\n")

	for i, r := range m.layout() {
		f := m.fields[i]
		label := labelStyle
		marker := "  "
		if i == m.focus {
			label = focusedLabel
			marker = "> "
		}
		b.WriteString(label.Render(f.label))
		b.WriteString(marker)
		b.WriteString(f.input.View())
		b.WriteString("\n")

		for j, c := range r.visible {
			text := c.Label
			if c.Secondary != "" {
				text += "  " + secondaryStyle.Render(c.Secondary)
			}
			style := itemStyle
			if i == m.focus && j == f.cursor {
				style = highlightStyle
			}
			b.WriteString(style.Render(text))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.status()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m *Model) status() string {
	f := m.fields[m.focus]
	state := f.sel.State()
	switch {
	case state == autocomplete.StateOpenLoading:
		return "searching " + f.label + "..."
	case state.IsOpen() && len(f.sel.Visible()) == 0:
		return "no matches"
	case state.IsOpen():
		return string(f.sel.Origin()) + " suggestions, remote " + f.sel.Readiness().String()
	default:
		return "remote " + f.sel.Readiness().String()
	}
}

func (m *Model) helpLine() string {
	parts := make([]string, 0, len(m.keys.help()))
	for _, k := range m.keys.help() {
		h := k.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
