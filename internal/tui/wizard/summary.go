package wizard

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/zerotrust/onboard/internal/onboarding"
	"github.com/zerotrust/onboard/internal/tui/theme"
)

// renderSummary shows everything that will be submitted.
func renderSummary(session *onboarding.Session, th *theme.Theme) string {
	s := th.S()
	snap, err := session.Snapshot()
	if err != nil {
		return s.Error.Render(err.Error())
	}

	section := func(title string, checked bool) string {
		mark := s.Error.Render("✗")
		if checked {
			mark = s.StepChecked.Render("✓")
		}
		return mark + " " + s.Title.Render(title)
	}
	row := func(label, value string) string {
		return "  " + s.Label.Width(14).Render(label) + s.Value.Render(value)
	}

	var b strings.Builder
	b.WriteString(section("Account", session.AccountChecked()))
	b.WriteString("\n")
	b.WriteString(row("Email", snap.Account.Email) + "\n")
	b.WriteString(row("Username", snap.Account.Username) + "\n")
	b.WriteString(row("Password", strings.Repeat("•", len(snap.Account.Password))) + "\n\n")

	b.WriteString(section("Settings", session.SettingsChecked()))
	b.WriteString("\n")
	b.WriteString(row("Icon", snap.Settings.Icon) + "\n")
	b.WriteString(row("Prefix", snap.Settings.Prefix) + "\n")
	swatch := lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.Accent(snap.Settings.Accent, th.FgMuted))).
		Render("■ ")
	b.WriteString(row("Accent", "") + swatch + s.Value.Render(snap.Settings.Accent) + "\n\n")

	if snap.Service.Skipped {
		b.WriteString(s.StepChecked.Render("✓") + " " + s.Title.Render("Service") + " " + s.Muted.Render("(skipped)"))
		b.WriteString("\n")
	} else {
		b.WriteString(section("Service", session.ServicesChecked()))
		b.WriteString("\n")
		b.WriteString(row("Name", snap.Service.DisplayName) + "\n")
		b.WriteString(row("Address", snap.Service.Address) + "\n")
	}

	return b.String()
}
