package search

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	// MaxPaletteResults is the maximum number of commands shown at once
	MaxPaletteResults = 8
)

// Command is an action offered by the command palette
type Command struct {
	ID    string
	Title string
	Hint  string
}

func commandText(c Command) string {
	return c.Title
}

// PaletteStyles defines the visual styling for the palette
type PaletteStyles struct {
	Prompt    lipgloss.Style
	Input     lipgloss.Style
	Selected  lipgloss.Style
	Normal    lipgloss.Style
	Hint      lipgloss.Style
	Highlight lipgloss.Style
	More      lipgloss.Style
	Empty     lipgloss.Style
}

func defaultPaletteStyles() PaletteStyles {
	return PaletteStyles{
		Prompt: lipgloss.NewStyle().
			Foreground(lipgloss.Color("32")).
			Bold(true),
		Input: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("238")),
		Selected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("14")),
		Normal: lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")),
		Hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		Highlight: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		More: lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")),
		Empty: lipgloss.NewStyle().
			Foreground(lipgloss.Color("red")).
			Italic(true),
	}
}

// Palette is the bubbletea model of the command palette
type Palette struct {
	commands []Command
	results  []Ranked[Command]
	query    string
	cursor   int
	chosen   *Command
	quitting bool
	styles   PaletteStyles
}

// NewPalette creates a palette listing every command in input order
func NewPalette(commands []Command) Palette {
	p := Palette{
		commands: commands,
		styles:   defaultPaletteStyles(),
	}
	p.refresh()
	return p
}

// Init initializes the model (required by Bubble Tea)
func (p Palette) Init() tea.Cmd {
	return nil
}

// Update handles key presses
func (p Palette) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		p.quitting = true
		return p, tea.Quit
	case tea.KeyEnter:
		if p.cursor < len(p.results) {
			chosen := p.results[p.cursor].Item
			p.chosen = &chosen
		}
		return p, tea.Quit
	case tea.KeyUp, tea.KeyCtrlP:
		p.move(-1)
	case tea.KeyDown, tea.KeyCtrlN:
		p.move(1)
	case tea.KeyBackspace:
		if p.query != "" {
			runes := []rune(p.query)
			p.query = string(runes[:len(runes)-1])
			p.refresh()
		}
	case tea.KeySpace:
		p.query += " "
		p.refresh()
	case tea.KeyRunes:
		p.query += string(key.Runes)
		p.refresh()
	}
	return p, nil
}

func (p *Palette) move(direction int) {
	if len(p.results) == 0 {
		return
	}
	p.cursor = (p.cursor + direction + len(p.results)) % len(p.results)
}

// refresh re-ranks the commands and resets the cursor to the best match
func (p *Palette) refresh() {
	p.results = Filter(p.commands, p.query, commandText)
	p.cursor = 0
}

// Query returns the current filter text
func (p Palette) Query() string {
	return p.query
}

// Results returns the ranked commands in display order
func (p Palette) Results() []Command {
	return Items(p.results)
}

// Chosen returns the command picked with enter, if any
func (p Palette) Chosen() (Command, bool) {
	if p.chosen == nil {
		return Command{}, false
	}
	return *p.chosen, true
}

// View renders the palette
func (p Palette) View() string {
	if p.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(p.styles.Prompt.Render("> "))
	b.WriteString(p.styles.Input.Render(p.query))
	b.WriteString("█\n\n")

	if len(p.results) == 0 {
		b.WriteString(p.styles.Empty.Render("No matching commands"))
		b.WriteString("\n")
	}

	shown := p.results
	if len(shown) > MaxPaletteResults {
		shown = shown[:MaxPaletteResults]
	}
	for i, r := range shown {
		title := p.highlight(r.Item.Title)
		if i == p.cursor {
			b.WriteString(p.styles.Selected.Render(" " + r.Item.Title + " "))
		} else {
			b.WriteString("  " + p.styles.Normal.Render(title))
		}
		if r.Item.Hint != "" {
			b.WriteString(" " + p.styles.Hint.Render(r.Item.Hint))
		}
		b.WriteString("\n")
	}
	if extra := len(p.results) - len(shown); extra > 0 {
		b.WriteString(p.styles.More.Render(fmt.Sprintf("... and %d more", extra)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(p.styles.Hint.Render("↑/↓ to navigate, Enter to run, Esc to cancel"))
	return b.String()
}

// highlight marks the contiguous occurrence of the query inside title
func (p Palette) highlight(title string) string {
	if p.query == "" {
		return title
	}
	lower := strings.ToLower(title)
	if len(lower) != len(title) {
		return title
	}
	idx := strings.Index(lower, strings.ToLower(p.query))
	end := idx + len(p.query)
	if idx < 0 || end > len(title) {
		return title
	}
	return title[:idx] + p.styles.Highlight.Render(title[idx:end]) + title[end:]
}

// RunPalette runs the palette and returns the chosen command
func RunPalette(commands []Command) (Command, bool, error) {
	program := tea.NewProgram(NewPalette(commands))
	final, err := program.Run()
	if err != nil {
		return Command{}, false, fmt.Errorf("error running command palette: %w", err)
	}

	cmd, ok := final.(Palette).Chosen()
	return cmd, ok, nil
}
