// Package tui renders a live view of a stepwise solve: one solver step
// per frame, with the chosen trajectory plotted as it grows.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/fluxsim/internal/core"
	"github.com/san-kum/fluxsim/internal/fluxmod"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	pausedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

type tickMsg time.Time

// Live is the bubbletea model driving an assembled stepwise core.
type Live struct {
	core   *core.Core
	series *fluxmod.Series
	label  string
	model  string

	dt     float64
	steps  int
	taken  int
	paused bool
	err    error

	width  int
	height int
}

// NewLive prepares a live view for an assembled core. label selects the
// trajectory to plot.
func NewLive(c *core.Core, model, label string, dt float64, steps int) (*Live, error) {
	series, err := c.Series(label)
	if err != nil {
		return nil, err
	}
	return &Live{
		core:   c,
		series: series,
		label:  label,
		model:  model,
		dt:     dt,
		steps:  steps,
		width:  72,
		height: 16,
	}, nil
}

func (l *Live) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(30*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (l *Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return l, tea.Quit
		case " ":
			l.paused = !l.paused
		}
	case tea.WindowSizeMsg:
		l.width = msg.Width
		l.height = msg.Height - 6
	case tickMsg:
		if l.err != nil {
			return l, nil
		}
		if !l.paused && l.taken < l.steps {
			if err := l.core.Solve(l.dt); err != nil {
				l.err = err
				return l, nil
			}
			l.taken++
		}
		if l.taken >= l.steps {
			return l, nil
		}
		return l, tick()
	}
	return l, nil
}

func (l *Live) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("fluxsim live · %s", l.model)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(l.label))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  t=%.2f  step %d/%d", float64(l.taken)*l.dt, l.taken, l.steps)))
	if l.paused {
		b.WriteString("  " + pausedStyle.Render("paused"))
	}
	b.WriteString("\n\n")

	if l.taken > 0 {
		data := l.series.Col(0)[:l.taken+1]
		b.WriteString(asciigraph.Plot(data,
			asciigraph.Height(l.height),
			asciigraph.Width(l.width-10),
			asciigraph.Precision(3),
		))
	} else {
		b.WriteString(dimStyle.Render("waiting for first step..."))
	}
	b.WriteString("\n\n")

	if l.err != nil {
		b.WriteString(errStyle.Render("solve failed: "+l.err.Error()) + "\n")
	}
	b.WriteString(dimStyle.Render("space pause · q quit"))
	return b.String()
}

// Run blocks until the view exits and reports any solve error.
func Run(l *Live) error {
	p := tea.NewProgram(l)
	if _, err := p.Run(); err != nil {
		return err
	}
	return l.err
}
