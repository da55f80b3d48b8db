package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the HUD color scheme.
type Theme struct {
	Accent lipgloss.Color
	Dim    lipgloss.Color
	Alert  lipgloss.Color
}

// DefaultTheme is a green felt look.
var DefaultTheme = Theme{
	Accent: lipgloss.Color("#2ecc71"),
	Dim:    lipgloss.Color("#6e7681"),
	Alert:  lipgloss.Color("#e74c3c"),
}

// Styles are the derived lipgloss styles.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Border lipgloss.Style
	Help   lipgloss.Style
	Alert  lipgloss.Style
}

// NewStyles builds styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Value:  lipgloss.NewStyle(),
		Border: lipgloss.NewStyle().Foreground(t.Accent),
		Help:   lipgloss.NewStyle().Foreground(t.Dim),
		Alert:  lipgloss.NewStyle().Bold(true).Foreground(t.Alert),
	}
}

// Section is one labeled block of the HUD.
type Section struct {
	Label string
	Lines []string
}

// Frame is the full-screen HUD layout: a title bar with connection status,
// labeled sections, and a help line pinned to the bottom.
type Frame struct {
	Styles   Styles
	Title    string
	Status   string
	Alert    string
	Sections []Section
	Help     string
}

// Render draws the frame for the given terminal size.
func (f Frame) Render(width, height int) string {
	if width < 10 || height < 5 {
		return "..."
	}

	bc := f.Styles.Border
	inner := width - 4

	var lines []string
	push := func(content string) {
		if w := lipgloss.Width(content); w < inner {
			content += strings.Repeat(" ", inner-w)
		} else if w > inner {
			content = truncate(content, inner)
		}
		lines = append(lines, bc.Render("│ ")+content+bc.Render(" │"))
	}

	lines = append(lines, bc.Render("╭"+strings.Repeat("─", width-2)+"╮"))
	push(f.Styles.Title.Render(f.Title) + " " + f.Styles.Help.Render("["+f.Status+"]"))
	if f.Alert != "" {
		push(f.Styles.Alert.Render(f.Alert))
	}
	push("")

	for _, s := range f.Sections {
		push(f.Styles.Label.Render(s.Label))
		for _, l := range s.Lines {
			push("  " + l)
		}
		push("")
	}

	// Pad to height, keeping the help line at the bottom.
	for len(lines) < height-2 {
		push("")
	}
	if len(lines) > height-2 {
		lines = lines[:height-2]
	}
	push(f.Styles.Help.Render(f.Help))
	lines = append(lines, bc.Render("╰"+strings.Repeat("─", width-2)+"╯"))

	return strings.Join(lines, "\n")
}

// truncate cuts a styled string to the given display width. ANSI sequences
// are dropped for simplicity; truncation only happens on overflow.
func truncate(s string, w int) string {
	plain := []rune(stripANSI(s))
	if len(plain) <= w {
		return string(plain)
	}
	if w <= 1 {
		return string(plain[:w])
	}
	return string(plain[:w-1]) + "…"
}

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case inEsc:
			if r == 'm' {
				inEsc = false
			}
		case r == '\x1b':
			inEsc = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
