// Package styles provides shared lipgloss styles for CLI output.
package styles

import (
	"fmt"

	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/taskr/internal/core/task"
)

var (
	activeName = DefaultTheme
	active     = themes[DefaultTheme]
)

// Shared text styles, rebuilt by SetTheme.
var (
	TextPrimary   lipgloss.Style
	TextSecondary lipgloss.Style
	TextMuted     lipgloss.Style
	TextSuccess   lipgloss.Style
	TextWarning   lipgloss.Style
	TextError     lipgloss.Style
	TextBold      lipgloss.Style
	Header        lipgloss.Style
	Label         lipgloss.Style
)

func init() {
	rebuild()
}

// SetTheme switches the active palette.
func SetTheme(name string) error {
	p, ok := themes[name]
	if !ok {
		return fmt.Errorf("unknown theme %q", name)
	}
	activeName = name
	active = p
	rebuild()
	return nil
}

// ActiveTheme returns the name of the active palette.
func ActiveTheme() string {
	return activeName
}

func rebuild() {
	TextPrimary = lipgloss.NewStyle().Foreground(active.Primary)
	TextSecondary = lipgloss.NewStyle().Foreground(active.Secondary)
	TextMuted = lipgloss.NewStyle().Foreground(active.Muted)
	TextSuccess = lipgloss.NewStyle().Foreground(active.Success)
	TextWarning = lipgloss.NewStyle().Foreground(active.Warning)
	TextError = lipgloss.NewStyle().Foreground(active.Error)
	TextBold = lipgloss.NewStyle().Bold(true)
	Header = lipgloss.NewStyle().Bold(true).Foreground(active.Primary)
	Label = lipgloss.NewStyle().Foreground(active.Muted).Width(14)
}

// Priority returns the style used to render p.
func Priority(p task.Priority) lipgloss.Style {
	switch p {
	case task.PriorityHigh:
		return TextError
	case task.PriorityMedium:
		return TextWarning
	default:
		return TextMuted
	}
}

// Status returns the style used to render s.
func Status(s task.Status) lipgloss.Style {
	switch s {
	case task.StatusCompleted:
		return TextSuccess
	case task.StatusInProgress:
		return TextSecondary
	default:
		return TextPrimary
	}
}

// Status glyphs shown before titles.
const (
	IconPending    = "○"
	IconInProgress = "◐"
	IconCompleted  = "●"
)

// StatusIcon returns the glyph for s.
func StatusIcon(s task.Status) string {
	switch s {
	case task.StatusCompleted:
		return IconCompleted
	case task.StatusInProgress:
		return IconInProgress
	default:
		return IconPending
	}
}

func colorHexPtr(c lipgloss.TerminalColor) *string {
	hex, ok := c.(lipgloss.Color)
	if !ok {
		return nil
	}
	s := string(hex)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() ansi.StyleConfig {
	if activeName == PlainTheme {
		return glamourstyles.NoTTYStyleConfig
	}

	cfg := glamourstyles.DarkStyleConfig

	fg := colorHexPtr(active.Foreground)
	primary := colorHexPtr(active.Primary)
	secondary := colorHexPtr(active.Secondary)
	muted := colorHexPtr(active.Muted)
	surface := colorHexPtr(active.Surface)

	cfg.Document.Color = fg
	cfg.Paragraph.Color = fg

	cfg.Heading.Color = primary
	cfg.H1.Color = fg
	cfg.H1.BackgroundColor = surface
	cfg.H2.Color = primary
	cfg.H3.Color = primary

	cfg.BlockQuote.Color = muted
	cfg.HorizontalRule.Color = muted

	cfg.Link.Color = secondary
	cfg.LinkText.Color = secondary

	cfg.Code.Color = secondary
	cfg.CodeBlock.Color = muted

	return cfg
}

// FormTheme returns the huh theme for interactive prompts.
func FormTheme() *huh.Theme {
	if activeName == PlainTheme {
		return huh.ThemeBase()
	}

	t := huh.ThemeCharm()
	t.Focused.Title = t.Focused.Title.Foreground(active.Primary)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(active.Primary)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(active.Success)
	t.Focused.Description = t.Focused.Description.Foreground(active.Muted)
	return t
}
