package run

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	capturedto "meetcap/internal/modules/capture/dto"
	"meetcap/internal/ui/theme"
)

// TransitionMsg carries one state change of a running session.
type TransitionMsg struct {
	Transition capturedto.TransitionOutput
}

// DoneMsg is sent once the job behind the view has returned.
type DoneMsg struct {
	Outcomes []capturedto.OutcomeOutput
	Err      error
}

type sessionRow struct {
	id      string
	state   string
	since   time.Time
	history []string
}

// Model follows every session of one run or schedule job. Quitting asks
// the job to cancel and waits for DoneMsg so the recording is stopped
// before the program exits.
type Model struct {
	title      string
	cancel     func()
	spinner    spinner.Model
	order      []string
	sessions   map[string]*sessionRow
	outcomes   []capturedto.OutcomeOutput
	err        error
	cancelling bool
	done       bool
	width      int
}

func New(title string, cancel func()) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)
	return Model{
		title:    title,
		cancel:   cancel,
		spinner:  sp,
		sessions: map[string]*sessionRow{},
	}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.done {
				return m, tea.Quit
			}
			if !m.cancelling && m.cancel != nil {
				m.cancelling = true
				m.cancel()
			}
		}
	case TransitionMsg:
		t := msg.Transition
		row, ok := m.sessions[t.SessionID]
		if !ok {
			row = &sessionRow{id: t.SessionID}
			m.sessions[t.SessionID] = row
			m.order = append(m.order, t.SessionID)
		}
		row.state = t.To
		row.since = t.At
		row.history = append(row.history, t.To)
	case DoneMsg:
		m.done = true
		m.outcomes = msg.Outcomes
		m.err = msg.Err
		return m, tea.Quit
	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(m.title) + "\n\n")

	if len(m.order) == 0 && !m.done {
		sb.WriteString(m.spinner.View() + theme.Muted.Render(" waiting for the first session") + "\n")
	}
	for _, id := range m.order {
		row := m.sessions[id]
		marker := m.spinner.View()
		if row.state == "Queued" || row.state == "Failed" {
			marker = " "
		}
		sb.WriteString(fmt.Sprintf("%s %s  %s  %s\n",
			marker,
			lipgloss.NewStyle().Bold(true).Render(id),
			theme.State(row.state).Render(row.state),
			theme.Muted.Render("since "+row.since.Local().Format("15:04:05"))))
		sb.WriteString(theme.Muted.Render("   "+strings.Join(row.history, " → ")) + "\n")
	}

	for _, o := range m.outcomes {
		sb.WriteString("\n" + renderOutcome(o))
	}
	if m.err != nil {
		sb.WriteString("\n" + theme.Bad.Render("error: "+m.err.Error()) + "\n")
	}

	footer := "q: cancel"
	switch {
	case m.done:
		footer = "done"
	case m.cancelling:
		footer = "cancelling, stopping any active recording…"
	}
	sb.WriteString("\n" + theme.Muted.Render(footer))

	pane := theme.PaneActive
	if m.width > 4 {
		pane = pane.Width(m.width - 4)
	}
	return pane.Render(sb.String())
}

// Outcomes returns what DoneMsg delivered.
func (m Model) Outcomes() ([]capturedto.OutcomeOutput, error) {
	return m.outcomes, m.err
}

func renderOutcome(o capturedto.OutcomeOutput) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s  %s", o.SessionID, theme.State(o.State).Render(o.State)))
	if o.Reason != "" {
		sb.WriteString(" (" + o.Reason + ")")
	}
	sb.WriteString("\n")
	if o.OutputPath != "" {
		sb.WriteString(theme.Muted.Render("   file: "+o.OutputPath) + "\n")
	}
	if o.TaskID != "" {
		sb.WriteString(theme.Muted.Render("   task: "+o.TaskID) + "\n")
	}
	if len(o.Conditions) > 0 {
		sb.WriteString(theme.Hot.Render("   "+strings.Join(o.Conditions, ", ")) + "\n")
	}
	return sb.String()
}
