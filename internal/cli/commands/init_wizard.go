package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/chdoc/internal/cli/config"
)

type wizardField int

const (
	fieldHost wizardField = iota
	fieldPort
	fieldUser
	fieldPassword
	fieldDatabase
	fieldSecure
	fieldAPIKey
	fieldModel
	fieldSubmit
	fieldCancel

	fieldTotal
)

// isText reports whether the field is backed by a text input.
func (f wizardField) isText() bool {
	return f < fieldSubmit && f != fieldSecure
}

// wizardValues carries the completed form back to the init command.
type wizardValues struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Secure   bool
	APIKey   string
	Model    string
}

// initWizard is the interactive form behind 'chdoc init'. One text input
// per field, a toggle for TLS, and Save/Cancel buttons; tab and the arrow
// keys cycle focus.
type initWizard struct {
	inputs    [fieldSubmit]textinput.Model
	secure    bool
	focus     wizardField
	submitted bool
	cancelled bool
}

func newInitWizard(cfg *config.Config) *initWizard {
	w := &initWizard{focus: fieldHost, secure: cfg.ClickHouse.Secure}

	mk := func(placeholder, value string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 256
		ti.Width = 40
		ti.SetValue(value)
		return ti
	}

	portValue := ""
	if cfg.ClickHouse.Port != 0 {
		portValue = strconv.Itoa(cfg.ClickHouse.Port)
	}

	w.inputs[fieldHost] = mk("localhost", cfg.ClickHouse.Host)
	w.inputs[fieldPort] = mk(strconv.Itoa(config.DefaultPort), portValue)
	w.inputs[fieldUser] = mk(config.DefaultUser, cfg.ClickHouse.User)
	w.inputs[fieldPassword] = mk("(or ${VAR} to read the environment)", cfg.ClickHouse.Password)
	w.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	w.inputs[fieldDatabase] = mk("(all databases)", cfg.ClickHouse.Database)
	w.inputs[fieldAPIKey] = mk("(leave empty to skip enrichment)", cfg.Gemini.APIKey)
	w.inputs[fieldAPIKey].EchoMode = textinput.EchoPassword
	w.inputs[fieldModel] = mk(config.DefaultModel, cfg.Gemini.Model)

	w.inputs[fieldHost].Focus()
	return w
}

func (w *initWizard) Init() tea.Cmd {
	return textinput.Blink
}

func (w *initWizard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			w.cancelled = true
			return w, tea.Quit

		case "tab", "down":
			// Cycle forward through fields
			w.focus = (w.focus + 1) % fieldTotal
			w.updateFocus()
			return w, nil

		case "shift+tab", "up":
			// Cycle backward through fields
			w.focus = (w.focus - 1 + fieldTotal) % fieldTotal
			w.updateFocus()
			return w, nil

		case "enter":
			switch w.focus {
			case fieldSubmit:
				w.submitted = true
				return w, tea.Quit
			case fieldCancel:
				w.cancelled = true
				return w, tea.Quit
			case fieldSecure:
				w.secure = !w.secure
				return w, nil
			default:
				// Enter on a text field advances to the next one
				w.focus = (w.focus + 1) % fieldTotal
				w.updateFocus()
				return w, nil
			}

		case " ":
			if w.focus == fieldSecure {
				w.secure = !w.secure
				return w, nil
			}

		case "left", "right":
			switch w.focus {
			case fieldSecure:
				w.secure = !w.secure
				return w, nil
			case fieldSubmit:
				w.focus = fieldCancel
				return w, nil
			case fieldCancel:
				w.focus = fieldSubmit
				return w, nil
			}
		}

		// Everything else goes to the focused text input
		if w.focus.isText() {
			var cmd tea.Cmd
			w.inputs[w.focus], cmd = w.inputs[w.focus].Update(msg)
			return w, cmd
		}
	}

	return w, nil
}

func (w *initWizard) updateFocus() {
	for f := fieldHost; f < fieldSubmit; f++ {
		if !f.isText() {
			continue
		}
		if f == w.focus {
			w.inputs[f].Focus()
		} else {
			w.inputs[f].Blur()
		}
	}
}

func (w *initWizard) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	labelStyle := lipgloss.NewStyle().Bold(true).Width(12)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	focusedToggle := lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12")).Padding(0, 1)
	unfocusedToggle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 1)

	activeButton := lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12")).Padding(0, 2).Bold(true)
	inactiveButton := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Padding(0, 2)

	row := func(label string, f wizardField) string {
		return lipgloss.JoinHorizontal(lipgloss.Center,
			labelStyle.Render(label),
			w.inputs[f].View(),
		)
	}

	// TLS toggle
	secureValue := "no"
	if w.secure {
		secureValue = "yes"
	}
	var secureDisplay string
	if w.focus == fieldSecure {
		secureDisplay = focusedToggle.Render("< " + secureValue + " >")
	} else {
		secureDisplay = unfocusedToggle.Render("  " + secureValue + "  ")
	}
	secureRow := lipgloss.JoinHorizontal(lipgloss.Center,
		labelStyle.Render("Secure:"),
		secureDisplay,
	)

	// Buttons
	var submitButton, cancelButton string
	if w.focus == fieldSubmit {
		submitButton = activeButton.Render("[ Save ]")
	} else {
		submitButton = inactiveButton.Render("  Save  ")
	}
	if w.focus == fieldCancel {
		cancelButton = activeButton.Render("[ Cancel ]")
	} else {
		cancelButton = inactiveButton.Render("  Cancel  ")
	}
	buttonRow := lipgloss.JoinHorizontal(lipgloss.Center, submitButton, "   ", cancelButton)

	help := mutedStyle.Render("Tab/↑↓: navigate | Enter: confirm | Esc: cancel")

	var b strings.Builder
	b.WriteString(titleStyle.Render("chdoc setup"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left,
		row("Host:", fieldHost),
		row("Port:", fieldPort),
		row("User:", fieldUser),
		row("Password:", fieldPassword),
		row("Database:", fieldDatabase),
		secureRow,
		row("API key:", fieldAPIKey),
		row("Model:", fieldModel),
		"",
		buttonRow,
		"",
		help,
	))
	b.WriteString("\n")
	return b.String()
}

func (w *initWizard) values() wizardValues {
	port := config.DefaultPort
	if p, err := strconv.Atoi(strings.TrimSpace(w.inputs[fieldPort].Value())); err == nil && p > 0 {
		port = p
	}

	v := wizardValues{
		Host:     strings.TrimSpace(w.inputs[fieldHost].Value()),
		Port:     port,
		User:     strings.TrimSpace(w.inputs[fieldUser].Value()),
		Password: w.inputs[fieldPassword].Value(),
		Database: strings.TrimSpace(w.inputs[fieldDatabase].Value()),
		Secure:   w.secure,
		APIKey:   strings.TrimSpace(w.inputs[fieldAPIKey].Value()),
		Model:    strings.TrimSpace(w.inputs[fieldModel].Value()),
	}
	if v.Host == "" {
		v.Host = "localhost"
	}
	if v.User == "" {
		v.User = config.DefaultUser
	}
	if v.Model == "" {
		v.Model = config.DefaultModel
	}
	return v
}

// runInitWizard runs the form and returns the entered values, or nil when
// the user cancelled.
func runInitWizard(cfg *config.Config) (*wizardValues, error) {
	w := newInitWizard(cfg)
	p := tea.NewProgram(w)

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("setup form failed: %w", err)
	}

	m, ok := final.(*initWizard)
	if !ok || m.cancelled || !m.submitted {
		return nil, nil
	}

	v := m.values()
	return &v, nil
}
