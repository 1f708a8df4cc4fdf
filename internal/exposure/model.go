package exposure

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/azvault/go/internal/confirm"
)

const maskedValue = "••••••••••••"

// Copier writes a value to the clipboard and reports whether it did.
// Copied stays true for a short feedback window after a copy.
type Copier interface {
	Copy(value string) bool
	Copied() bool
}

const copiedStatus = "Copied to clipboard"


type refreshMsg time.Time

func refreshTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

// RevealStyles defines the visual styling for the reveal view
type RevealStyles struct {
	Name      lipgloss.Style
	Value     lipgloss.Style
	Masked    lipgloss.Style
	Countdown lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
}

func defaultRevealStyles() RevealStyles {
	return RevealStyles{
		Name: lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")).
			Bold(true),
		Value: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("238")),
		Masked: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Countdown: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("red")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}

// RevealModel is the bubbletea view over a Revealer holding a fetched value
type RevealModel struct {
	revealer *Revealer
	copier   Copier
	err      error
	quitting bool
	styles   RevealStyles
}

// NewRevealModel creates the view. copier may be nil to disable copying.
func NewRevealModel(revealer *Revealer, copier Copier) RevealModel {
	return RevealModel{
		revealer: revealer,
		copier:   copier,
		styles:   defaultRevealStyles(),
	}
}

// Init starts the redraw loop
func (m RevealModel) Init() tea.Cmd {
	return refreshTick()
}

// Update handles key presses and redraw ticks
func (m RevealModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		if m.quitting {
			return m, nil
		}
		return m, refreshTick()
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyRunes:
			return m.handleKey(string(msg.Runes))
		}
	}
	return m, nil
}

func (m RevealModel) handleKey(key string) (tea.Model, tea.Cmd) {
	m.err = nil

	switch strings.ToLower(key) {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "r":
		if err := m.revealer.Reveal(); err != nil {
			m.err = err
		}
	case "h":
		m.revealer.Hide()
	case "c":
		m.copy()
	}
	return m, nil
}

func (m *RevealModel) copy() {
	if m.copier == nil {
		m.err = errors.New("clipboard copy is disabled")
		return
	}
	value, ok := m.revealer.Value()
	if !ok {
		m.err = ErrNothingFetched
		return
	}
	if !m.copier.Copy(value.Plaintext()) {
		m.err = errors.New("could not copy to clipboard")
	}
}

// Err returns the error of the last key press, if any
func (m RevealModel) Err() error {
	return m.err
}

// Status returns the copy confirmation while the copier's feedback window
// is open
func (m RevealModel) Status() string {
	if m.copier != nil && m.copier.Copied() {
		return copiedStatus
	}
	return ""
}

// View renders the value, masked unless revealed
func (m RevealModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	name, held := m.revealer.Held()
	if !held {
		b.WriteString(m.styles.Masked.Render("Value hidden and discarded"))
		b.WriteString("\n\n")
		b.WriteString(m.styles.Help.Render("q to quit"))
		return b.String()
	}

	b.WriteString(m.styles.Name.Render(name))
	b.WriteString("\n\n")

	if plaintext, ok := m.revealer.Plaintext(); ok {
		b.WriteString(m.styles.Value.Render(plaintext))
		b.WriteString("\n")
		state := m.revealer.State()
		b.WriteString(m.styles.Countdown.Render(fmt.Sprintf("Hiding in %ds", state.SecondsRemaining)))
	} else {
		b.WriteString(m.styles.Masked.Render(maskedValue))
	}
	b.WriteString("\n\n")

	switch {
	case errors.Is(m.err, confirm.ErrRejected):
		b.WriteString(m.styles.Error.Render("Re-authentication required before reveal"))
		b.WriteString("\n")
	case m.err != nil:
		b.WriteString(m.styles.Error.Render(m.err.Error()))
		b.WriteString("\n")
	case m.Status() != "":
		b.WriteString(m.styles.Status.Render(m.Status()))
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Help.Render("r reveal, h hide, c copy, q quit"))
	return b.String()
}

// RunReveal runs the reveal view until the user quits
func RunReveal(revealer *Revealer, copier Copier) error {
	program := tea.NewProgram(NewRevealModel(revealer, copier))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running reveal view: %w", err)
	}
	return nil
}
