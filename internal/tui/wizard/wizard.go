// Package wizard is the terminal host of the onboarding flow: a welcome
// screen, one form per step, the summary and the submission state.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/zerotrust/onboard/internal/logger"
	"github.com/zerotrust/onboard/internal/onboarding"
	"github.com/zerotrust/onboard/internal/steps"
	"github.com/zerotrust/onboard/internal/submit"
	"github.com/zerotrust/onboard/internal/tui/theme"
)

// ErrCancelled is returned by Run when the user quits before the login
// succeeded.
var ErrCancelled = errors.New("onboarding cancelled")

// Result is the outcome of a completed wizard.
type Result struct {
	RedirectURL string
	Submission  submit.Result
}

// submitDoneMsg carries the outcome of a Submit or Retry call.
type submitDoneMsg struct {
	result submit.Result
	err    error
}

// Model is the Bubble Tea model of the wizard.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	session *onboarding.Session
	orch    *submit.Orchestrator
	theme   *theme.Theme
	keys    keyMap
	forms   map[onboarding.Domain]*Form

	// focus indexes the inputs of the current form followed by the Back
	// and Next buttons.
	focus int

	spinner    spinner.Model
	submitting bool
	submitErr  error
	result     submit.Result
	done       bool
	cancelled  bool

	width  int
	height int
}

// New creates the wizard model over a live session and its orchestrator.
func New(ctx context.Context, session *onboarding.Session, orch *submit.Orchestrator) *Model {
	ctx, cancel := context.WithCancel(ctx)
	th := theme.NewCatppuccinMocha()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(th.Primary))

	m := &Model{
		ctx:     ctx,
		cancel:  cancel,
		session: session,
		orch:    orch,
		theme:   th,
		keys:    defaultKeyMap(),
		forms:   make(map[onboarding.Domain]*Form),
		spinner: sp,
		width:   100,
		height:  30,
	}
	for _, d := range []onboarding.Domain{onboarding.DomainAccount, onboarding.DomainSettings, onboarding.DomainServices} {
		m.forms[d] = NewForm(session, d, th)
	}
	return m
}

// Run starts the wizard program and blocks until it exits.
func Run(ctx context.Context, session *onboarding.Session, orch *submit.Orchestrator) (*Result, error) {
	m := New(ctx, session, orch)
	defer m.cancel()

	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	wm, ok := finalModel.(*Model)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}
	if !wm.done {
		return nil, ErrCancelled
	}
	return &Result{RedirectURL: wm.result.RedirectURL, Submission: wm.result}, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.enterStep()
}

// Done reports whether the login succeeded.
func (m *Model) Done() bool { return m.done }

// Cancelled reports whether the user quit.
func (m *Model) Cancelled() bool { return m.cancelled }

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, f := range m.forms {
			f.SetWidth(m.contentWidth() - sidebarWidth - 4)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case submitDoneMsg:
		return m.handleSubmitDone(msg)

	case tea.KeyPressMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.cancelled = !m.done
			m.cancel()
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}

	if f := m.currentForm(); f != nil {
		return m, f.Update(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.done {
		if key.Matches(msg, m.keys.Enter, m.keys.Back) || msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil
	}
	if m.submitting {
		return m, nil
	}

	page := m.session.Page()

	if key.Matches(msg, m.keys.Back) {
		if page.Current == steps.Welcome {
			m.cancelled = true
			return m, tea.Quit
		}
		return m, m.back()
	}

	if page.Current == steps.Welcome {
		if key.Matches(msg, m.keys.Enter) {
			return m, m.advance(onboarding.TriggerEnter)
		}
		return m, nil
	}

	f := m.currentForm()
	if f == nil {
		return m.handleSummaryKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		return m, m.setFocus(m.focus + 1)
	case key.Matches(msg, m.keys.Prev):
		return m, m.setFocus(m.focus - 1)
	case key.Matches(msg, m.keys.Skip) && m.isServices(page.Current):
		skipped := !m.session.Service().Skipped
		m.session.SetSkipped(skipped)
		logger.Debug("Service step skipped=%v", skipped)
		if skipped {
			return m, m.advance(onboarding.TriggerNext)
		}
		return m, nil
	case key.Matches(msg, m.keys.Enter):
		switch m.focus - f.Len() {
		case 0:
			return m, m.back()
		case 1:
			return m, m.advance(onboarding.TriggerNext)
		default:
			return m, m.advance(onboarding.TriggerEnter)
		}
	}

	return m, f.Update(msg)
}

// handleSummaryKey handles pages without a form, the summary in particular.
func (m *Model) handleSummaryKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Next), key.Matches(msg, m.keys.Prev):
		m.focus = 1 - m.focus
		return m, nil
	case key.Matches(msg, m.keys.Retry) && m.orch.State() == submit.StateFailed && m.isSummary(m.session.Page().Current):
		return m, m.startSubmit(true)
	case key.Matches(msg, m.keys.Enter):
		if m.focus == 0 {
			return m, m.back()
		}
		if !m.isSummary(m.session.Page().Current) {
			return m, m.advance(onboarding.TriggerEnter)
		}
		if m.orch.State() == submit.StateFailed {
			return m, m.startSubmit(true)
		}
		// The summary never advances; the guard decides whether it submits.
		if !m.session.CanAdvance(m.session.Page().Current) {
			return m, nil
		}
		return m, m.startSubmit(false)
	}
	return m, nil
}

func (m *Model) startSubmit(retry bool) tea.Cmd {
	m.submitting = true
	m.submitErr = nil

	ctx, orch := m.ctx, m.orch
	run := func() tea.Msg {
		var res submit.Result
		var err error
		if retry {
			res, err = orch.Retry(ctx)
		} else {
			res, err = orch.Submit(ctx)
		}
		return submitDoneMsg{result: res, err: err}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m *Model) handleSubmitDone(msg submitDoneMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, submit.ErrInFlight) {
		return m, nil
	}
	m.submitting = false
	m.result = msg.result

	if msg.err != nil {
		m.submitErr = msg.err
		logger.Warn("Submission ended with error: %v", msg.err)
		return m, nil
	}
	if msg.result.State == submit.StateRedirecting {
		m.done = true
	}
	return m, nil
}

func (m *Model) advance(trigger onboarding.Trigger) tea.Cmd {
	slug, ok := m.session.Advance(trigger)
	if !ok {
		m.touchCurrent()
		return nil
	}
	logger.Debug("Advanced to %s via %s", slug, trigger)
	return m.enterStep()
}

func (m *Model) back() tea.Cmd {
	if _, ok := m.session.Back(); !ok {
		return nil
	}
	m.submitErr = nil
	return m.enterStep()
}

// enterStep revalidates the active form and resets focus.
func (m *Model) enterStep() tea.Cmd {
	for _, f := range m.forms {
		f.Blur()
	}
	if f := m.currentForm(); f != nil {
		m.session.Validate(f.domain)
		f.Sync()
		return m.setFocus(0)
	}
	m.focus = 1
	return nil
}

func (m *Model) setFocus(i int) tea.Cmd {
	f := m.currentForm()
	if f == nil {
		return nil
	}
	total := f.Len() + 2
	m.focus = (i + total) % total
	return f.Focus(m.focus)
}

// touchCurrent marks every input of the current form as edited so their
// errors show after a refused advance.
func (m *Model) touchCurrent() {
	f := m.currentForm()
	if f == nil {
		return
	}
	for _, def := range f.defs {
		f.touched[def.field] = true
	}
}

func (m *Model) currentForm() *Form {
	current := m.session.Page().Current
	if current < 0 {
		return nil
	}
	d, ok := onboarding.DomainFor(m.session.Registry().ValidityKey(current))
	if !ok {
		return nil
	}
	return m.forms[d]
}

func (m *Model) isSummary(i int) bool {
	reg := m.session.Registry()
	return reg.ValidityKey(i) == "" && reg.IsLast(i)
}

func (m *Model) isServices(i int) bool {
	return m.session.Registry().ValidityKey(i) == steps.KeyServices
}

func (m *Model) contentWidth() int {
	w := m.width - 10
	if w < 70 {
		w = 70
	}
	if w > 110 {
		w = 110
	}
	return w
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	var view tea.View
	view.AltScreen = true

	var content string
	if m.session.Page().Current == steps.Welcome {
		content = m.renderWelcome()
	} else {
		content = m.renderStep()
	}
	content = m.renderModal(content)

	canvas := uv.NewScreenBuffer(m.width, m.height)
	uv.NewStyledString(content).Draw(canvas, uv.Rectangle{
		Min: uv.Position{X: 0, Y: 0},
		Max: uv.Position{X: m.width, Y: m.height},
	})

	view.Content = lipgloss.NewLayer(canvas.Render())
	return view
}

func (m *Model) renderWelcome() string {
	s := m.theme.S()
	app := m.session.App()

	var b strings.Builder
	b.WriteString(s.Title.Render("Welcome to " + app.Name))
	b.WriteString("\n\n")
	b.WriteString(s.Subtitle.Render("This wizard creates the administrator account, configures the gateway"))
	b.WriteString("\n")
	b.WriteString(s.Subtitle.Render("and optionally registers a first service."))
	b.WriteString("\n\n")

	for i, step := range m.session.Registry().Steps() {
		b.WriteString(s.Muted.Render(fmt.Sprintf("  %d. %s", i+1, step.Name)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(renderHintBar(s, "enter", "get started", "esc", "quit"))
	return b.String()
}

func (m *Model) renderStep() string {
	s := m.theme.S()
	current := m.session.Page().Current
	step, _ := m.session.Registry().Step(current)
	bodyWidth := m.contentWidth() - sidebarWidth - 4

	var b strings.Builder
	pos, total := m.session.Progress()
	b.WriteString(s.Title.Render(step.Name))
	b.WriteString(s.Muted.Render(fmt.Sprintf("  step %d of %d", pos, total)))
	b.WriteString("\n\n")

	var hints []string
	nextLabel := "Next →"
	nextEnabled := m.session.CanAdvance(current)

	if f := m.currentForm(); f != nil {
		if m.isServices(current) && m.session.Service().Skipped {
			b.WriteString(s.Muted.Render("This step is skipped. Press ctrl+s to add a service."))
			b.WriteString("\n\n")
		}
		b.WriteString(f.View())
		hints = append(hints, hint(m.keys.Next)...)
		if f.Focused() >= 0 && f.defs[f.Focused()].kind == kindChoice {
			hints = append(hints, hint(m.keys.Choices)...)
		}
		if m.isServices(current) {
			hints = append(hints, hint(m.keys.Skip)...)
		}
	} else if m.isSummary(current) {
		b.WriteString(renderSummary(m.session, m.theme))
		nextLabel = "Submit"
		if m.orch.State() == submit.StateFailed {
			nextLabel = "Retry"
			nextEnabled = true
		}
		if m.submitting || m.done {
			nextEnabled = false
		}
		b.WriteString("\n")
		b.WriteString(m.renderSubmission())
	}
	b.WriteString("\n\n")

	buttonFocus := m.focus
	if f := m.currentForm(); f != nil {
		buttonFocus = m.focus - f.Len()
	}
	bar := NewButtonBar(s, CreateBackNextButtons(!m.submitting && !m.done, nextEnabled, nextLabel, buttonFocus))
	bar.SetWidth(bodyWidth)
	b.WriteString(bar.Render())
	b.WriteString("\n\n")

	hints = append(hints, hint(m.keys.Enter)...)
	hints = append(hints, hint(m.keys.Back)...)
	if m.orch.State() == submit.StateFailed && !m.submitting {
		hints = append(hints, hint(m.keys.Retry)...)
	}
	b.WriteString(renderHintBar(s, hints...))

	body := lipgloss.NewStyle().Width(bodyWidth).Render(b.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, renderSidebar(m.session, m.theme), "  ", body)
}

func (m *Model) renderSubmission() string {
	s := m.theme.S()
	app := m.session.App()

	switch {
	case m.submitting:
		return m.spinner.View() + " " + s.Subtitle.Render("Setting up "+app.Name+"…")
	case m.done:
		return s.Success.Render("✓ "+app.Name+" is ready") + "\n" +
			s.Value.Render(m.result.RedirectURL) + "\n" +
			s.Muted.Render("press enter to finish")
	case m.submitErr != nil && errors.Is(m.submitErr, submit.ErrMalformedAddress):
		return s.Error.Render("✗ The service address could not be read. Go back and correct it.")
	case m.submitErr != nil && errors.Is(m.submitErr, submit.ErrLoginFailed):
		return s.Error.Render("✗ The account was submitted but signing in failed.") + "\n" +
			s.Muted.Render("Press r to try signing in again.")
	case m.submitErr != nil:
		return s.Error.Render("✗ " + m.submitErr.Error())
	case !m.session.CanSubmit():
		return s.Warning.Render("Some steps are incomplete.")
	}
	return ""
}

// renderModal wraps the content in the bordered container, centered.
func (m *Model) renderModal(content string) string {
	modal := m.theme.S().Container.Width(m.contentWidth()).Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
