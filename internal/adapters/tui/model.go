// Package tui renders a run as an interactive terminal interface: the planned
// actions on the left, the output of the selected one on the right.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	listWidthRatio = 0.3
	logPaneChrome  = 3
)

// ActionStatus is the state of an action in the list.
type ActionStatus string

const (
	// StatusPending indicates the action has not started.
	StatusPending ActionStatus = "Pending"
	// StatusRunning indicates the action is executing.
	StatusRunning ActionStatus = "Running"
	// StatusDone indicates the action ran and succeeded.
	StatusDone ActionStatus = "Done"
	// StatusUpToDate indicates the action did not need to run.
	StatusUpToDate ActionStatus = "UpToDate"
	// StatusFailed indicates the action failed.
	StatusFailed ActionStatus = "Failed"
)

// ActionNode is one row of the action list.
type ActionNode struct {
	Name     string
	Kind     string
	Status   ActionStatus
	Started  time.Time
	Duration time.Duration
	Err      error
	Term     *Vterm
}

// Model is the bubbletea model of a run.
type Model struct {
	Actions  []*ActionNode
	byName   map[string]*ActionNode
	bySpan   map[string]*ActionNode
	Selected int
	Follow   bool

	ListOffset int
	ListHeight int
	LogWidth   int
	LogHeight  int

	interrupted bool
}

// NewModel creates an empty model following the running action.
func NewModel() *Model {
	return &Model{
		byName: make(map[string]*ActionNode),
		bySpan: make(map[string]*ActionNode),
		Follow: true,
	}
}

// Interrupted reports whether the user asked to abort the run.
func (m *Model) Interrupted() bool {
	return m.interrupted
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case MsgPlan:
		for _, name := range msg.Actions {
			m.node(name)
		}

	case MsgActionStart:
		n := m.node(msg.Name)
		n.Kind = msg.Kind
		n.Status = StatusRunning
		n.Started = msg.StartTime
		m.bySpan[msg.SpanID] = n
		if m.Follow {
			m.selectNode(n)
		}

	case MsgActionLog:
		if n, ok := m.bySpan[msg.SpanID]; ok {
			_, _ = n.Term.Write(msg.Data)
		}

	case MsgActionComplete:
		n, ok := m.bySpan[msg.SpanID]
		if !ok {
			break
		}
		delete(m.bySpan, msg.SpanID)
		n.Duration = msg.EndTime.Sub(n.Started)
		switch {
		case msg.Err != nil:
			n.Status = StatusFailed
			n.Err = msg.Err
			// Failures stay in view.
			if m.Follow {
				m.selectNode(n)
				m.Follow = false
			}
		case msg.UpToDate:
			n.Status = StatusUpToDate
		default:
			n.Status = StatusDone
		}
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		m.interrupted = true
		return tea.Quit
	case "k", "up":
		m.moveSelection(-1)
	case "j", "down":
		m.moveSelection(1)
	case "pgup":
		if n := m.selectedNode(); n != nil {
			n.Term.Scroll(-m.LogHeight)
		}
	case "pgdown":
		if n := m.selectedNode(); n != nil {
			n.Term.Scroll(m.LogHeight)
		}
	case "esc":
		m.Follow = true
		for _, n := range m.Actions {
			if n.Status == StatusRunning {
				m.selectNode(n)
				break
			}
		}
	}
	return nil
}

func (m *Model) node(name string) *ActionNode {
	if n, ok := m.byName[name]; ok {
		return n
	}
	n := &ActionNode{Name: name, Status: StatusPending, Term: NewVterm()}
	if m.LogWidth > 0 && m.LogHeight > 0 {
		n.Term.SetSize(m.LogWidth, m.LogHeight)
	}
	m.byName[name] = n
	m.Actions = append(m.Actions, n)
	return n
}

func (m *Model) moveSelection(delta int) {
	next := m.Selected + delta
	if next < 0 || next >= len(m.Actions) {
		return
	}
	m.Follow = false
	m.Selected = next
	m.ensureVisible()
}

func (m *Model) selectNode(n *ActionNode) {
	for i, a := range m.Actions {
		if a == n {
			m.Selected = i
			break
		}
	}
	n.Term.ScrollToBottom()
	m.ensureVisible()
}

func (m *Model) selectedNode() *ActionNode {
	if m.Selected >= 0 && m.Selected < len(m.Actions) {
		return m.Actions[m.Selected]
	}
	return nil
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.Selected < m.ListOffset {
		m.ListOffset = m.Selected
	} else if m.Selected >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.Selected - m.ListHeight + 1
	}
}

func (m *Model) resize(width, height int) {
	listWidth := int(float64(width) * listWidthRatio)
	header := lipgloss.Height(titleStyle.Render("ACTIONS") + "\n")

	m.LogWidth = max(width-listWidth-logPaneChrome, 1)
	m.LogHeight = max(height-header, 1)
	m.ListHeight = max(height-header-1, 1)
	for _, n := range m.Actions {
		n.Term.SetSize(m.LogWidth, m.LogHeight)
	}
	m.ensureVisible()
}
