package wizard

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/zerotrust/onboard/internal/tui/theme"
)

// ButtonState represents the visual state of a button.
type ButtonState int

const (
	ButtonNormal   ButtonState = iota // Normal state (enabled)
	ButtonDisabled                    // Disabled state (grayed out)
	ButtonFocused                     // Focused/highlighted state
)

// Button represents a single button in the button bar.
type Button struct {
	Label string
	State ButtonState
}

// ButtonBar manages a set of buttons with consistent styling.
type ButtonBar struct {
	buttons []Button
	width   int
	styles  *theme.Styles
}

// NewButtonBar creates a new button bar with the given buttons.
func NewButtonBar(styles *theme.Styles, buttons []Button) *ButtonBar {
	return &ButtonBar{
		buttons: buttons,
		width:   60,
		styles:  styles,
	}
}

// SetWidth updates the width for the button bar.
func (b *ButtonBar) SetWidth(width int) {
	b.width = width
}

// Render renders the buttons right-aligned within the bar width.
func (b *ButtonBar) Render() string {
	if len(b.buttons) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(b.buttons))
	for _, btn := range b.buttons {
		switch btn.State {
		case ButtonDisabled:
			rendered = append(rendered, b.styles.ButtonDisabled.Render(btn.Label))
		case ButtonFocused:
			rendered = append(rendered, b.styles.ButtonFocused.Render(btn.Label))
		default:
			rendered = append(rendered, b.styles.ButtonNormal.Render(btn.Label))
		}
	}

	return lipgloss.PlaceHorizontal(b.width, lipgloss.Right, strings.Join(rendered, ""))
}

// CreateBackNextButtons creates the Back/Next pair. focus is 0 for Back,
// 1 for Next and anything else for neither; a disabled button is never
// shown focused.
func CreateBackNextButtons(backEnabled, nextEnabled bool, nextLabel string, focus int) []Button {
	state := func(enabled, focused bool) ButtonState {
		switch {
		case !enabled:
			return ButtonDisabled
		case focused:
			return ButtonFocused
		default:
			return ButtonNormal
		}
	}

	return []Button{
		{Label: "← Back", State: state(backEnabled, focus == 0)},
		{Label: nextLabel, State: state(nextEnabled, focus == 1)},
	}
}
