package wizard

import (
	"slices"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/zerotrust/onboard/internal/onboarding"
	"github.com/zerotrust/onboard/internal/tui/theme"
	"github.com/zerotrust/onboard/internal/validate"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindSecret
	kindChoice
)

type fieldDef struct {
	field       onboarding.Field
	label       string
	placeholder string
	kind        fieldKind
}

// formFields lists the inputs of each step form in display order.
var formFields = map[onboarding.Domain][]fieldDef{
	onboarding.DomainAccount: {
		{field: onboarding.FieldEmail, label: "Email", placeholder: "admin@example.com"},
		{field: onboarding.FieldUsername, label: "Username", placeholder: "admin"},
		{field: onboarding.FieldPassword, label: "Password", placeholder: "at least 8 characters", kind: kindSecret},
	},
	onboarding.DomainSettings: {
		{field: onboarding.FieldIcon, label: "Icon", placeholder: "/_zero/static/logo.png"},
		{field: onboarding.FieldPrefix, label: "Route prefix", placeholder: "_zero"},
		{field: onboarding.FieldAccent, label: "Accent color", kind: kindChoice},
	},
	onboarding.DomainServices: {
		{field: onboarding.FieldDisplayName, label: "Display name", placeholder: "My Service"},
		{field: onboarding.FieldAddress, label: "Address", placeholder: "https://service.internal:8443"},
	},
}

// Form edits the fields of one domain. Every change is written to the
// session, which revalidates the domain.
type Form struct {
	session *onboarding.Session
	domain  onboarding.Domain
	defs    []fieldDef
	inputs  []textinput.Model
	touched map[onboarding.Field]bool
	focus   int
	width   int
	theme   *theme.Theme
}

// NewForm creates the form of domain, pre-filled from the session.
func NewForm(session *onboarding.Session, domain onboarding.Domain, th *theme.Theme) *Form {
	f := &Form{
		session: session,
		domain:  domain,
		defs:    formFields[domain],
		touched: make(map[onboarding.Field]bool),
		focus:   -1,
		width:   50,
		theme:   th,
	}

	s := th.S()
	styles := textinput.Styles{
		Focused: textinput.StyleState{
			Text:        s.InputText,
			Placeholder: s.InputPlaceholder,
			Prompt:      s.InputPrompt,
		},
		Blurred: textinput.StyleState{
			Text:        s.InputBlurred,
			Placeholder: s.InputPlaceholder,
			Prompt:      s.Muted,
		},
		Cursor: textinput.CursorStyle{
			Color: lipgloss.Color(th.Primary),
			Shape: tea.CursorBar,
			Blink: true,
		},
	}

	f.inputs = make([]textinput.Model, len(f.defs))
	for i, def := range f.defs {
		in := textinput.New()
		in.Placeholder = def.placeholder
		in.Prompt = "> "
		in.SetStyles(styles)
		in.SetWidth(f.width)
		if def.kind == kindSecret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		f.inputs[i] = in
	}
	f.Sync()
	return f
}

// Sync reloads the input values from the session.
func (f *Form) Sync() {
	for i, def := range f.defs {
		if def.kind == kindChoice {
			continue
		}
		f.inputs[i].SetValue(f.session.Value(def.field))
	}
}

// Len returns the number of inputs.
func (f *Form) Len() int {
	return len(f.defs)
}

// Focused returns the index of the focused input, or -1.
func (f *Form) Focused() int {
	return f.focus
}

// Focus focuses input i. Out of range indexes blur the form.
func (f *Form) Focus(i int) tea.Cmd {
	f.Blur()
	if i < 0 || i >= len(f.defs) {
		return nil
	}
	f.focus = i
	if f.defs[i].kind == kindChoice {
		return nil
	}
	return f.inputs[i].Focus()
}

// Blur removes focus from every input.
func (f *Form) Blur() {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	f.focus = -1
}

// SetWidth updates the input width.
func (f *Form) SetWidth(width int) {
	f.width = width
	for i := range f.inputs {
		f.inputs[i].SetWidth(width - 4)
	}
}

// Update forwards msg to the focused input and records edits.
func (f *Form) Update(msg tea.Msg) tea.Cmd {
	if f.focus < 0 || f.focus >= len(f.defs) {
		return nil
	}
	def := f.defs[f.focus]

	if def.kind == kindChoice {
		if key, ok := msg.(tea.KeyPressMsg); ok {
			switch key.String() {
			case "left", "h":
				f.cycleChoice(def.field, -1)
			case "right", "l", "space":
				f.cycleChoice(def.field, 1)
			}
		}
		return nil
	}

	before := f.inputs[f.focus].Value()
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	if after := f.inputs[f.focus].Value(); after != before {
		f.touched[def.field] = true
		f.session.Edit(f.domain, def.field, after)
	}
	return cmd
}

func (f *Form) cycleChoice(field onboarding.Field, delta int) {
	n := len(validate.Colors)
	i := slices.Index(validate.Colors, f.session.Value(field))
	switch {
	case i < 0 && delta > 0:
		i = 0
	case i < 0:
		i = n - 1
	default:
		i = (i + delta + n) % n
	}
	f.touched[field] = true
	f.session.Edit(f.domain, field, validate.Colors[i])
}

// View renders the inputs with their inline errors.
func (f *Form) View() string {
	s := f.theme.S()
	var b strings.Builder

	for i, def := range f.defs {
		label := s.Label.Render(def.label)
		if f.session.Valid(def.field) {
			label += " " + s.StepChecked.Render("✓")
		}
		b.WriteString(label)
		b.WriteString("\n")

		if def.kind == kindChoice {
			b.WriteString(f.renderChoice(def.field, i == f.focus))
		} else {
			b.WriteString(f.inputs[i].View())
		}
		b.WriteString("\n")

		if f.touched[def.field] && !f.session.Valid(def.field) {
			b.WriteString(s.Error.Render("✗ " + onboarding.Message(def.field)))
			b.WriteString("\n")
		}
		if i < len(f.defs)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (f *Form) renderChoice(field onboarding.Field, focused bool) string {
	s := f.theme.S()
	current := f.session.Value(field)

	var swatches strings.Builder
	for _, name := range validate.Colors {
		mark := "■"
		if name == current {
			mark = "▣"
		}
		swatches.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.Accent(name, f.theme.FgMuted))).
			Render(mark))
	}

	name := current
	if name == "" {
		name = "none"
	}
	selector := s.Value.Render(name)
	if focused {
		selector = s.InputPrompt.Render("◀ ") + selector + s.InputPrompt.Render(" ▶")
	} else {
		selector = s.Muted.Render("  ") + selector
	}
	return swatches.String() + "  " + selector
}
