package cli

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/relnotes/internal/core"
	"github.com/valter-silva-au/relnotes/pkg/models"
)

// progressMsg carries one settled summarization call into the model.
type progressMsg struct {
	event core.ProgressEvent
}

// progressDoneMsg tells the display the run has finished.
type progressDoneMsg struct{}

var (
	progressTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	progressDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// progressModel is the live display shown while the assembler is
// summarizing work items.
type progressModel struct {
	spin       spinner.Model
	summarized int
	fallbacks  int
	rollups    int
	lastTitle  string
	done       bool
}

func newProgressModel() progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return progressModel{spin: s}
}

func (m progressModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		ev := msg.event
		switch ev.Kind {
		case core.KindItem:
			m.summarized++
			m.lastTitle = ev.Title
		default:
			m.rollups++
		}
		if ev.Status == models.SummaryFallback {
			m.fallbacks++
		}
		return m, nil

	case progressDoneMsg:
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		// The run keeps going; the display just stays up. Ctrl+C is
		// delivered to the process and cancels via the signal context.
		return m, nil

	default:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	line := fmt.Sprintf("%s %s %d items summarized", m.spin.View(),
		progressTitleStyle.Render("Summarizing release"), m.summarized)
	if m.fallbacks > 0 {
		line += fallbackStyle.Render(fmt.Sprintf(" (%d fallbacks)", m.fallbacks))
	}
	if m.lastTitle != "" {
		line += "\n" + progressDimStyle.Render("  last: "+m.lastTitle)
	}
	return line + "\n"
}

// startProgressDisplay launches the live progress display and returns
// the progress callback to hand to the assembler plus a finish function
// that must be called once the run settles.
func startProgressDisplay() (func(core.ProgressEvent), func(*GenerateResult, error) error) {
	p := tea.NewProgram(newProgressModel())

	finished := make(chan error, 1)
	go func() {
		_, err := p.Run()
		finished <- err
	}()

	progress := func(ev core.ProgressEvent) {
		p.Send(progressMsg{event: ev})
	}

	done := func(_ *GenerateResult, _ error) error {
		p.Send(progressDoneMsg{})
		return <-finished
	}

	return progress, done
}
