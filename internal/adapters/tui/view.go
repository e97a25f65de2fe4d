package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/stagehand/internal/ui/style"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.ListHeight == 0 {
		return "Initializing..."
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.actionList(), m.logPane())
}

func (m *Model) actionList() string {
	var s strings.Builder

	done := 0
	for _, n := range m.Actions {
		if n.Status == StatusDone || n.Status == StatusUpToDate || n.Status == StatusFailed {
			done++
		}
	}
	s.WriteString(titleStyle.Render(fmt.Sprintf("ACTIONS %d/%d", done, len(m.Actions))) + "\n\n")

	end := min(m.ListOffset+m.ListHeight, len(m.Actions))
	for i := min(m.ListOffset, end); i < end; i++ {
		s.WriteString(m.row(i, m.Actions[i]) + "\n")
	}
	return listStyle.Render(s.String())
}

func (m *Model) row(i int, n *ActionNode) string {
	st := statusStyle(n.Status)
	cursor := "  "
	if i == m.Selected {
		cursor = selectedStyle.Render(style.Arrow + " ")
		if n.Status == StatusPending || n.Status == StatusRunning {
			st = selectedStyle
		}
	}
	return cursor + st.Render(statusIcon(n.Status)+" "+n.Name)
}

func (m *Model) logPane() string {
	n := m.selectedNode()
	if n == nil {
		return logStyle.Render(titleStyle.Render("OUTPUT (waiting)"))
	}

	mode := "following"
	if !m.Follow {
		mode = "manual"
	}
	header := titleStyle.Render(fmt.Sprintf("%s (%s)", n.Name, mode))
	if n.Status == StatusFailed {
		header = failureTitleStyle.Render(fmt.Sprintf("%s failed: %v", n.Name, n.Err))
	}
	return logStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, n.Term.View()))
}

func statusIcon(s ActionStatus) string {
	switch s {
	case StatusRunning:
		return "●"
	case StatusDone:
		return style.Check
	case StatusUpToDate:
		return style.Tilde
	case StatusFailed:
		return style.Cross
	default:
		return "○"
	}
}

func statusStyle(s ActionStatus) lipgloss.Style {
	switch s {
	case StatusRunning:
		return runningStyle
	case StatusDone:
		return doneStyle
	case StatusUpToDate:
		return upToDateStyle
	case StatusFailed:
		return failedStyle
	default:
		return pendingStyle
	}
}
