package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/idilsaglam/backlog/internal/ui"
)

// ErrPromptCanceled is returned when the user leaves a prompt with esc or ctrl+c.
var ErrPromptCanceled = errors.New("prompt canceled")

// promptModel asks for a single value. Secret values are masked while typed.
type promptModel struct {
	label    string
	ti       textinput.Model
	done     bool
	canceled bool
}

func newPrompt(label string, secret bool) promptModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 256
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.Focus()
	return promptModel{label: label, ti: ti}
}

func (m promptModel) Init() tea.Cmd { return textinput.Blink }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.canceled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || m.canceled {
		return ""
	}
	return ui.Current().Accent.Render(m.label+":") + " " + m.ti.View()
}

func (m promptModel) result() (string, error) {
	if m.canceled || !m.done {
		return "", ErrPromptCanceled
	}
	return m.ti.Value(), nil
}

// Prompt reads one value from the terminal. With secret set the typed
// characters are masked.
func Prompt(label string, secret bool) (string, error) {
	final, err := tea.NewProgram(newPrompt(label, secret)).Run()
	if err != nil {
		return "", err
	}
	return final.(promptModel).result()
}
