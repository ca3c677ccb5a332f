package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wapc-runtime/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	opStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	consoleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	rt       *runtime.Runtime
	instance *runtime.Instance
	filename string
	result   string
	console  *consoleLog
	history  []historyEntry
	inputs   []textinput.Model
	focusIdx int
	state    modelState
}

type historyEntry struct {
	operation string
	result    string
	failed    bool
}

type modelState int

const (
	stateLoading modelState = iota
	stateInputCall
	stateShowResult
)

// consoleLog collects the guest's console output between invocations so the
// TUI can show it alongside the result.
type consoleLog struct {
	b strings.Builder
}

func (c *consoleLog) Write(p []byte) (int, error) {
	return c.b.Write(p)
}

func (c *consoleLog) drain() string {
	s := c.b.String()
	c.b.Reset()
	return s
}

func newInteractiveModel(filename string) *interactiveModel {
	return &interactiveModel{
		filename: filename,
		console:  &consoleLog{},
		state:    stateLoading,
	}
}

type loadedMsg struct {
	err      error
	rt       *runtime.Runtime
	instance *runtime.Instance
}

type invokeResultMsg struct {
	err       error
	operation string
	result    string
	console   string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadGuest
}

func (m *interactiveModel) loadGuest() tea.Msg {
	ctx := context.Background()

	data, err := os.ReadFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}

	rt, err := runtime.NewWithConfig(ctx, &runtime.Config{
		HostCallHandler: loggingHostCall,
		ConsoleWriter:   m.console,
	})
	if err != nil {
		return loadedMsg{err: err}
	}

	mod, err := rt.Load(ctx, data)
	if err != nil {
		rt.Close(ctx)
		return loadedMsg{err: err}
	}

	instance, err := mod.Instantiate(ctx)
	if err != nil {
		rt.Close(ctx)
		return loadedMsg{err: err}
	}

	return loadedMsg{rt: rt, instance: instance}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			ctx := context.Background()
			if m.instance != nil {
				m.instance.Close(ctx)
			}
			if m.rt != nil {
				m.rt.Close(ctx)
			}
			return m, tea.Quit

		case "enter":
			switch m.state {
			case stateInputCall:
				if strings.TrimSpace(m.inputs[0].Value()) == "" {
					return m, nil
				}
				return m, m.invoke

			case stateShowResult:
				m.prepareInputs()
				m.state = stateInputCall
			}

		case "tab":
			if m.state == stateInputCall {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			if m.state == stateShowResult {
				m.prepareInputs()
				m.state = stateInputCall
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.rt = msg.rt
		m.instance = msg.instance
		m.prepareInputs()
		m.state = stateInputCall

	case invokeResultMsg:
		m.result = msg.result
		m.err = msg.err
		if msg.console != "" {
			m.result += "\n" + consoleStyle.Render(strings.TrimRight(msg.console, "\n"))
		}
		entry := historyEntry{operation: msg.operation, result: msg.result}
		if msg.err != nil {
			entry.failed = true
			entry.result = msg.err.Error()
		}
		m.history = append(m.history, entry)
		m.state = stateShowResult
	}

	if m.state == stateInputCall {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	op := textinput.New()
	op.Prompt = "operation: "
	op.Width = 40
	op.Focus()

	payload := textinput.New()
	payload.Prompt = "payload:   "
	payload.Width = 40

	m.inputs = []textinput.Model{op, payload}
	m.focusIdx = 0
}

func (m *interactiveModel) invoke() tea.Msg {
	ctx := context.Background()
	operation := strings.TrimSpace(m.inputs[0].Value())
	payload := []byte(m.inputs[1].Value())

	resp, err := m.instance.Invoke(ctx, operation, payload)
	console := m.console.drain()
	if err != nil {
		return invokeResultMsg{err: err, operation: operation, console: console}
	}
	return invokeResultMsg{operation: operation, result: string(resp), console: console}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress ctrl+c to quit.", m.err))
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("waPC Runner"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	if len(m.history) > 0 {
		for _, h := range m.history {
			b.WriteString(opStyle.Render(h.operation))
			b.WriteString(" -> ")
			if h.failed {
				b.WriteString(errorStyle.Render(h.result))
			} else {
				b.WriteString(resultStyle.Render(h.result))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	switch m.state {
	case stateLoading:
		b.WriteString("Loading guest...")

	case stateInputCall:
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter invoke • ctrl+c quit"))

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter next call • ctrl+c quit"))
	}

	return b.String()
}

func runInteractive(filename string) error {
	p := tea.NewProgram(newInteractiveModel(filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
