package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const defaultGalaxyURL = "http://localhost:8080"

type initModel struct {
	workspaceArg string

	inputs   []textinput.Model
	focusIdx int
	canceled bool
	done     bool
}

func initialInitModel(workspaceArg string) initModel {
	cwd, _ := os.Getwd()
	defaultWorkspace := filepath.Base(cwd)

	galaxyURL := textinput.New()
	galaxyURL.Placeholder = defaultGalaxyURL
	galaxyURL.Focus()
	galaxyURL.CharLimit = 256
	galaxyURL.Width = 40

	apiKey := textinput.New()
	apiKey.Placeholder = "leave empty to use $IRIDA_GALAXY_API_KEY"
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.EchoCharacter = '•'
	apiKey.CharLimit = 128
	apiKey.Width = 40

	workspace := textinput.New()
	if workspaceArg != "" {
		workspace.Placeholder = workspaceArg
	} else {
		workspace.Placeholder = defaultWorkspace
	}
	workspace.CharLimit = 64
	workspace.Width = 40

	return initModel{
		workspaceArg: workspaceArg,
		inputs:       []textinput.Model{galaxyURL, apiKey, workspace},
	}
}

func (m initModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m initModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.canceled, m.done = true, true
			return m, tea.Quit
		case "enter":
			m.done = true
			return m, tea.Quit
		case "tab", "down":
			return m.moveFocus(1), nil
		case "shift+tab", "up":
			return m.moveFocus(-1), nil
		}
	}

	cmds := make([]tea.Cmd, len(m.inputs))
	for i := range m.inputs {
		m.inputs[i], cmds[i] = m.inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

// moveFocus cycles focus through the fields, wrapping at both ends.
func (m initModel) moveFocus(delta int) initModel {
	n := len(m.inputs)
	m.focusIdx = ((m.focusIdx+delta)%n + n) % n
	for i := range m.inputs {
		if i == m.focusIdx {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return m
}

var initLabels = []string{"Galaxy URL", "Galaxy API key", "Workspace name"}

func (m initModel) View() string {
	var b strings.Builder
	b.WriteString("\n")
	for i, input := range m.inputs {
		fmt.Fprintf(&b, "%-16s %s\n", initLabels[i]+":", input.View())
	}
	b.WriteString("\n[Tab] next field • [Enter] to continue • [Esc] to cancel\n")
	return b.String()
}

// initAnswers are the values collected by the init prompt.
type initAnswers struct {
	GalaxyURL     string
	APIKey        string
	WorkspaceName string
}

// answers applies defaults to whatever was left empty.
func (m initModel) answers() initAnswers {
	a := initAnswers{
		GalaxyURL:     m.inputs[0].Value(),
		APIKey:        m.inputs[1].Value(),
		WorkspaceName: m.inputs[2].Value(),
	}
	if a.GalaxyURL == "" {
		a.GalaxyURL = defaultGalaxyURL
	}
	if a.WorkspaceName == "" {
		a.WorkspaceName = m.workspaceArg
	}
	if a.WorkspaceName == "" {
		a.WorkspaceName = "."
	}
	return a
}

func RunInitTUI(workspaceArg string) (initAnswers, bool) {
	p := tea.NewProgram(initialInitModel(workspaceArg))
	m, err := p.Run()
	if err != nil {
		return initAnswers{}, true
	}

	final := m.(initModel)
	if final.canceled {
		return initAnswers{}, true
	}
	return final.answers(), false
}
