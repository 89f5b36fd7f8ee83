// Package theme holds the palette and pre-built styles of the onboarding TUI.
package theme

import (
	"sync"

	"charm.land/lipgloss/v2"
)

// Theme defines the color palette for the TUI.
type Theme struct {
	Name   string
	IsDark bool

	// Semantic colors
	Primary   string
	Secondary string

	// Background hierarchy (dark→light)
	BgBase     string
	BgMantle   string
	BgSurface0 string

	// Foreground hierarchy (dim→bright)
	FgMuted  string
	FgSubtle string
	FgBase   string

	// Status colors
	Success string
	Warning string
	Error   string

	// Lazy-built styles
	styles     *Styles
	stylesOnce sync.Once
}

// S returns the pre-built styles for this theme.
// Styles are lazily initialized on first call.
func (t *Theme) S() *Styles {
	t.stylesOnce.Do(func() {
		t.styles = t.buildStyles()
	})
	return t.styles
}

// buildStyles constructs the pre-built styles from theme colors.
func (t *Theme) buildStyles() *Styles {
	c := lipgloss.Color
	button := lipgloss.NewStyle().Padding(0, 2).MarginLeft(1).MarginRight(1)

	return &Styles{
		Container: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c(t.Secondary)).
			Padding(1, 2),
		Title: lipgloss.NewStyle().
			Foreground(c(t.Primary)).
			Bold(true),
		Subtitle: lipgloss.NewStyle().Foreground(c(t.FgSubtle)),
		Label:    lipgloss.NewStyle().Foreground(c(t.FgSubtle)),
		Value:    lipgloss.NewStyle().Foreground(c(t.FgBase)),
		Muted:    lipgloss.NewStyle().Foreground(c(t.FgMuted)),
		Error:    lipgloss.NewStyle().Foreground(c(t.Error)),
		Success:  lipgloss.NewStyle().Foreground(c(t.Success)).Bold(true),
		Warning:  lipgloss.NewStyle().Foreground(c(t.Warning)),

		StepChecked: lipgloss.NewStyle().Foreground(c(t.Success)),
		StepActive:  lipgloss.NewStyle().Foreground(c(t.Primary)).Bold(true),
		StepPending: lipgloss.NewStyle().Foreground(c(t.FgMuted)),

		ButtonNormal: button.
			Foreground(c(t.FgBase)).
			Background(c(t.BgSurface0)),
		ButtonDisabled: button.
			Foreground(c(t.FgMuted)).
			Background(c(t.BgMantle)),
		ButtonFocused: button.
			Foreground(c(t.BgBase)).
			Background(c(t.Secondary)).
			Bold(true),

		HintKey:       lipgloss.NewStyle().Foreground(c(t.FgSubtle)).Bold(true),
		HintDesc:      lipgloss.NewStyle().Foreground(c(t.FgMuted)),
		HintSeparator: lipgloss.NewStyle().Foreground(c(t.BgSurface0)),

		InputText:        lipgloss.NewStyle().Foreground(c(t.FgBase)),
		InputPlaceholder: lipgloss.NewStyle().Foreground(c(t.FgMuted)),
		InputPrompt:      lipgloss.NewStyle().Foreground(c(t.Secondary)),
		InputBlurred:     lipgloss.NewStyle().Foreground(c(t.FgSubtle)),
	}
}
