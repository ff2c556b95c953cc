// Package ui is the terminal front end: it renders the pipeline status,
// the microphone level and recent utterances, and maps keys to pipeline
// events.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/loqalabs/loqa-dictate/internal/pipeline"
)

const (
	source         = "tui"
	refresh        = 50 * time.Millisecond
	waveformBars   = 32
	defaultHistory = 5
)

var blocks = []rune("▁▂▃▄▅▆▇█")

// Controller is what the UI drives.
type Controller interface {
	pipeline.Submitter
	Cell() *pipeline.StateCell
}

// Meter exposes the live microphone level.
type Meter interface {
	Level() float64
	Waveform(n int) []float64
}

type Options struct {
	ShowRawText bool
	Hotkey      string
	HistorySize int
}

type statusMsg pipeline.Status

type closedMsg struct{}

type tickMsg time.Time

type Model struct {
	ctrl    Controller
	meter   Meter
	opts    Options
	updates <-chan pipeline.Status

	status  pipeline.Status
	history []pipeline.Record
	notice  string
	spinner spinner.Model
	width   int
}

func NewModel(ctrl Controller, meter Meter, updates <-chan pipeline.Status, opts Options) Model {
	if opts.HistorySize <= 0 {
		opts.HistorySize = defaultHistory
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)
	return Model{
		ctrl:    ctrl,
		meter:   meter,
		opts:    opts,
		updates: updates,
		status:  ctrl.Cell().Snapshot(),
		spinner: sp,
		width:   80,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitStatus(m.updates), tick())
}

func waitStatus(updates <-chan pipeline.Status) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return statusMsg(st)
	}
}

func tick() tea.Cmd {
	return tea.Tick(refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case statusMsg:
		st := pipeline.Status(msg)
		if rec, ok := pipeline.Finished(m.status, st); ok {
			m.history = append([]pipeline.Record{rec}, m.history...)
			if len(m.history) > m.opts.HistorySize {
				m.history = m.history[:m.opts.HistorySize]
			}
		}
		m.status = st
		return m, waitStatus(m.updates)
	case closedMsg:
		return m, tea.Quit
	case tickMsg:
		return m, tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var ev pipeline.Event
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ", "space":
		if m.status.State == pipeline.StateRecording {
			ev = pipeline.RecordStop(source)
		} else {
			ev = pipeline.RecordStart(source)
		}
	case "c", "esc":
		ev = pipeline.Cancel(source)
	case "enter":
		ev = pipeline.Acknowledge(source)
	case "m":
		ev = pipeline.ModeChange(m.status.Mode.Next(), source)
	case "r":
		ev = pipeline.ResetContext(source)
		m.notice = "context cleared"
	default:
		return m, nil
	}
	if !m.ctrl.Submit(ev) {
		m.notice = "pipeline busy; key ignored"
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("loqa-dictate"), "  ",
		modeStyle.Render(string(m.status.Mode)))
	b.WriteString(header + "\n\n")

	state := string(m.status.State)
	style, ok := stateStyles[state]
	if !ok {
		style = textStyle
	}
	line := style.Render(strings.ToUpper(state))
	if m.status.State.Busy() && m.status.State != pipeline.StateRecording {
		line = m.spinner.View() + " " + line
	}
	b.WriteString(line + "\n")
	b.WriteString(m.renderLevel() + "\n\n")

	var body []string
	if m.opts.ShowRawText && m.status.RawText != "" {
		body = append(body, labelStyle.Render("raw       ")+textStyle.Render(m.status.RawText))
	}
	if m.status.CorrectedText != "" {
		body = append(body, labelStyle.Render("corrected ")+textStyle.Render(m.status.CorrectedText))
	}
	if m.status.InjectedText != "" {
		body = append(body, labelStyle.Render("inserted  ")+okStyle.Render(m.status.InjectedText))
	}
	if m.status.Warning != "" {
		body = append(body, warningStyle.Render("! "+m.status.Warning))
	}
	if m.status.InjectError != "" {
		body = append(body, errorStyle.Render("insert failed: "+m.status.InjectError))
	}
	if m.status.Error != "" {
		body = append(body, errorStyle.Render(m.status.Error)+helpStyle.Render("  (enter to dismiss)"))
	}
	if len(body) > 0 {
		b.WriteString(boxStyle.Width(max(m.width-4, 20)).Render(strings.Join(body, "\n")) + "\n\n")
	}

	if len(m.history) > 0 {
		b.WriteString(labelStyle.Render("recent") + "\n")
		for _, rec := range m.history {
			b.WriteString("  " + historyLine(rec) + "\n")
		}
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString(helpStyle.Render(m.notice) + "\n")
	}
	help := "space record/stop · c cancel · m mode · r reset context · enter dismiss · q quit"
	if m.opts.Hotkey != "" {
		help = "hold " + m.opts.Hotkey + " or " + help
	}
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func (m Model) renderLevel() string {
	if m.meter == nil {
		return ""
	}
	bars := m.meter.Waveform(waveformBars)
	var wave strings.Builder
	for _, v := range bars {
		idx := int(v * float64(len(blocks)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(blocks) {
			idx = len(blocks) - 1
		}
		wave.WriteRune(blocks[idx])
	}
	return levelStyle.Render(wave.String()) + labelStyle.Render(fmt.Sprintf(" %3.0f%%", m.meter.Level()*100))
}

func historyLine(rec pipeline.Record) string {
	stamp := labelStyle.Render(rec.FinishedAt.Local().Format("15:04:05"))
	switch rec.Outcome {
	case pipeline.OutcomeInjected:
		text := rec.InjectedText
		if rec.Warning != "" {
			return stamp + " " + warningStyle.Render(text)
		}
		return stamp + " " + textStyle.Render(text)
	case pipeline.OutcomeCancelled:
		return stamp + " " + labelStyle.Render("cancelled")
	default:
		return stamp + " " + errorStyle.Render(rec.Outcome+": "+rec.Error)
	}
}

// Run shows the TUI until the user quits or ctx is done.
func Run(ctx context.Context, ctrl Controller, meter Meter, opts Options) error {
	updates, unsubscribe := ctrl.Cell().Subscribe(64)
	defer unsubscribe()

	p := tea.NewProgram(NewModel(ctrl, meter, updates, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
