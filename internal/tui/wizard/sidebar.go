package wizard

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/zerotrust/onboard/internal/onboarding"
	"github.com/zerotrust/onboard/internal/tui/theme"
)

const sidebarWidth = 22

// renderSidebar lists the steps with their status and the progress counter.
func renderSidebar(session *onboarding.Session, th *theme.Theme) string {
	s := th.S()
	reg := session.Registry()

	var b strings.Builder
	b.WriteString(s.Title.Render(session.App().Name))
	b.WriteString("\n\n")

	for i, step := range reg.Steps() {
		var line string
		switch session.StepStatus(i) {
		case onboarding.StatusChecked:
			line = s.StepChecked.Render("✓ " + step.Name)
		case onboarding.StatusActive:
			line = s.StepActive.Render("● " + step.Name)
		default:
			line = s.StepPending.Render("○ " + step.Name)
		}
		if session.Page().Current == i {
			line = s.StepActive.Render("▌") + line
		} else {
			line = " " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	pos, total := session.Progress()
	b.WriteString("\n")
	b.WriteString(renderProgress(th, session.Settings().Accent, pos, total))
	b.WriteString(" ")
	b.WriteString(s.Muted.Render(fmt.Sprintf("%d / %d", pos, total)))

	return lipgloss.NewStyle().Width(sidebarWidth).Render(b.String())
}

// renderProgress draws one cell per step, filled cells shaded from the
// theme color towards the chosen accent.
func renderProgress(th *theme.Theme, accent string, pos, total int) string {
	if total <= 0 {
		return ""
	}
	colors := theme.Gradient(th.Primary, theme.Accent(accent, th.Secondary), total)

	var b strings.Builder
	for i := 0; i < total; i++ {
		if i < pos {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i])).Render("━━"))
		} else {
			b.WriteString(th.S().StepPending.Render("──"))
		}
	}
	return b.String()
}
