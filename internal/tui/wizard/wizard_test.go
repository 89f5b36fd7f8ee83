package wizard

import (
	"context"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/colorprofile"
	"github.com/stretchr/testify/require"
	"github.com/zerotrust/onboard/internal/onboarding"
	"github.com/zerotrust/onboard/internal/steps"
	"github.com/zerotrust/onboard/internal/submit"
)

func init() {
	// Plain output keeps rendered strings comparable.
	lipgloss.Writer.Profile = colorprofile.Ascii
}

type fakeAPI struct {
	mu            sync.Mutex
	loginStatuses []int
	setupCalls    int
	loginCalls    int
}

func (f *fakeAPI) Setup(context.Context, submit.SetupRequest) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setupCalls++
	return 200, nil
}

func (f *fakeAPI) Login(context.Context, string, submit.LoginRequest) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loginCalls++
	status := 200
	if len(f.loginStatuses) > 0 {
		status = f.loginStatuses[0]
		f.loginStatuses = f.loginStatuses[1:]
	}
	return status, nil
}

func newTestModel(t *testing.T, api submit.API) (*Model, *onboarding.Session) {
	t.Helper()
	s, err := onboarding.New(steps.Default(), onboarding.WithSecret("test-secret"))
	require.NoError(t, err)
	t.Cleanup(s.Dispose)
	s.SetApp(onboarding.App{Name: "Zerotrust", Logo: "/_zero/static/logo.png", Prefix: "_zero"})

	if api == nil {
		api = &fakeAPI{}
	}
	orch := submit.New(s, api, "http://gw.local", submit.WithLoginDelay(0))

	m := New(context.Background(), s, orch)
	m.Init()
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, s
}

func press(m *Model, keys ...string) tea.Cmd {
	var last tea.Cmd
	for _, k := range keys {
		var msg tea.KeyPressMsg
		switch k {
		case "enter":
			msg = tea.KeyPressMsg{Code: tea.KeyEnter}
		case "esc":
			msg = tea.KeyPressMsg{Code: tea.KeyEscape}
		case "tab":
			msg = tea.KeyPressMsg{Code: tea.KeyTab}
		case "right":
			msg = tea.KeyPressMsg{Code: tea.KeyRight}
		case "ctrl+c":
			msg = tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
		case "ctrl+s":
			msg = tea.KeyPressMsg{Code: 's', Mod: tea.ModCtrl}
		default:
			r := []rune(k)[0]
			msg = tea.KeyPressMsg{Code: r, Text: k}
		}
		_, last = m.Update(msg)
	}
	return last
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

// drain runs cmd and every command it batches, feeding the wizard's own
// messages back into the model.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(t, m, c)
		}
	case submitDoneMsg:
		m.Update(msg)
	}
}

func fillAll(s *onboarding.Session) {
	s.Edit(onboarding.DomainAccount, onboarding.FieldEmail, "james@bond.com")
	s.Edit(onboarding.DomainAccount, onboarding.FieldUsername, "jbond")
	s.Edit(onboarding.DomainAccount, onboarding.FieldPassword, "shaken-not-stirred")
	s.Edit(onboarding.DomainSettings, onboarding.FieldIcon, "/_zero/static/logo.png")
	s.Edit(onboarding.DomainSettings, onboarding.FieldPrefix, "_zero")
	s.Edit(onboarding.DomainSettings, onboarding.FieldAccent, "indigo")
	s.Edit(onboarding.DomainServices, onboarding.FieldDisplayName, "Example Service")
	s.Edit(onboarding.DomainServices, onboarding.FieldAddress, "https://example.com:8443")
}

func TestWelcomeEnterStartsWizard(t *testing.T) {
	m, s := newTestModel(t, nil)
	require.Equal(t, steps.Welcome, s.Page().Current)
	require.Contains(t, m.renderWelcome(), "Welcome to Zerotrust")

	press(m, "enter")
	require.Equal(t, 0, s.Page().Current)
	require.Equal(t, 0, m.focus, "first input is focused")
}

func TestEscOnWelcomeCancels(t *testing.T) {
	m, _ := newTestModel(t, nil)

	cmd := press(m, "esc")
	require.NotNil(t, cmd)
	require.True(t, m.Cancelled())
	require.False(t, m.Done())
}

func TestCtrlCCancels(t *testing.T) {
	m, _ := newTestModel(t, nil)
	press(m, "enter")

	cmd := press(m, "ctrl+c")
	require.NotNil(t, cmd)
	require.True(t, m.Cancelled())
	require.Error(t, m.ctx.Err(), "quitting cancels in-flight work")
}

func TestTypingEditsSession(t *testing.T) {
	m, s := newTestModel(t, nil)
	press(m, "enter")

	typeText(m, "james@bond.com")
	require.Equal(t, "james@bond.com", s.Account().Email)
	require.True(t, s.Valid(onboarding.FieldEmail))

	press(m, "tab")
	typeText(m, "jb")
	require.Equal(t, "jb", s.Account().Username)
	require.False(t, s.Valid(onboarding.FieldUsername))
	require.Contains(t, m.currentForm().View(), onboarding.Message(onboarding.FieldUsername))
}

func TestEnterIsRefusedUntilStepIsValid(t *testing.T) {
	m, s := newTestModel(t, nil)
	press(m, "enter")

	press(m, "enter")
	require.Equal(t, 0, s.Page().Current)

	fillAll(s)
	press(m, "enter")
	require.Equal(t, 1, s.Page().Current)
}

func TestNextButtonUsesTheSameGuard(t *testing.T) {
	m, s := newTestModel(t, nil)
	press(m, "enter")

	// Three inputs, then Back, then Next.
	press(m, "tab", "tab", "tab", "tab")
	require.Equal(t, 4, m.focus)

	press(m, "enter")
	require.Equal(t, 0, s.Page().Current, "next button is refused like enter")

	fillAll(s)
	press(m, "enter")
	require.Equal(t, 1, s.Page().Current)
}

func TestBackButtonAndEsc(t *testing.T) {
	m, s := newTestModel(t, nil)
	fillAll(s)
	press(m, "enter", "enter", "enter")
	require.Equal(t, 2, s.Page().Current)

	press(m, "esc")
	require.Equal(t, 1, s.Page().Current)

	press(m, "tab", "tab", "tab")
	require.Equal(t, 3, m.focus, "back button")
	press(m, "enter")
	require.Equal(t, 0, s.Page().Current)
}

func TestAccentChoice(t *testing.T) {
	m, s := newTestModel(t, nil)
	fillAll(s)
	s.Edit(onboarding.DomainSettings, onboarding.FieldAccent, "")
	press(m, "enter", "enter")
	require.Equal(t, 1, s.Page().Current)
	require.Equal(t, "/_zero/static/logo.png", m.currentForm().inputs[0].Value(), "icon seeded from the app")

	press(m, "tab", "tab")
	press(m, "right")
	require.Equal(t, "red", s.Settings().Accent)
	press(m, "right")
	require.Equal(t, "orange", s.Settings().Accent)
	require.True(t, s.SettingsChecked())
}

func TestSkipServiceStep(t *testing.T) {
	m, s := newTestModel(t, nil)
	fillAll(s)
	s.Edit(onboarding.DomainServices, onboarding.FieldAddress, "")
	press(m, "enter", "enter", "enter")
	require.Equal(t, 2, s.Page().Current)

	press(m, "enter")
	require.Equal(t, 2, s.Page().Current)

	press(m, "ctrl+s")
	require.True(t, s.Service().Skipped)
	require.Equal(t, 3, s.Page().Current)
	require.Contains(t, m.renderStep(), "(skipped)")
}

func TestSubmitFromSummary(t *testing.T) {
	api := &fakeAPI{}
	m, s := newTestModel(t, api)
	fillAll(s)
	press(m, "enter", "enter", "enter", "enter")
	require.Equal(t, 3, s.Page().Current)

	cmd := press(m, "enter")
	require.True(t, m.submitting)

	// A second trigger while submitting is ignored.
	require.Nil(t, press(m, "enter"))

	drain(t, m, cmd)
	require.False(t, m.submitting)
	require.True(t, m.Done())
	require.Equal(t, "http://gw.local/_zero/app", m.result.RedirectURL)
	require.Equal(t, 1, api.setupCalls)
	require.Equal(t, 1, api.loginCalls)
	require.Contains(t, m.renderStep(), "http://gw.local/_zero/app")

	require.NotNil(t, press(m, "enter"), "enter finishes")
	require.False(t, m.Cancelled())
}

func TestLoginFailureOffersRetry(t *testing.T) {
	api := &fakeAPI{loginStatuses: []int{500}}
	m, s := newTestModel(t, api)
	fillAll(s)
	press(m, "enter", "enter", "enter", "enter")

	drain(t, m, press(m, "enter"))
	require.False(t, m.Done())
	require.ErrorIs(t, m.submitErr, submit.ErrLoginFailed)
	require.Contains(t, m.renderStep(), "Press r to try signing in again.")

	drain(t, m, press(m, "r"))
	require.True(t, m.Done())
	require.Equal(t, 1, api.setupCalls)
	require.Equal(t, 2, api.loginCalls)
}

func TestSummaryRefusesIncompleteSubmission(t *testing.T) {
	m, s := newTestModel(t, nil)
	fillAll(s)
	press(m, "enter", "enter", "enter", "enter")

	s.Edit(onboarding.DomainAccount, onboarding.FieldPassword, "short")
	require.Nil(t, press(m, "enter"))
	require.False(t, m.submitting)
	require.Contains(t, m.renderStep(), "Some steps are incomplete.")
}

func TestEnteringStepValidatesSeededValues(t *testing.T) {
	m, s := newTestModel(t, nil)
	require.False(t, s.Valid(onboarding.FieldIcon))
	require.False(t, s.Valid(onboarding.FieldPrefix))

	s.Edit(onboarding.DomainAccount, onboarding.FieldEmail, "james@bond.com")
	s.Edit(onboarding.DomainAccount, onboarding.FieldUsername, "jbond")
	s.Edit(onboarding.DomainAccount, onboarding.FieldPassword, "shaken-not-stirred")
	press(m, "enter", "enter")
	require.Equal(t, 1, s.Page().Current)

	require.True(t, s.Valid(onboarding.FieldIcon), "logo seeded from the app is checked on entry")
	require.True(t, s.Valid(onboarding.FieldPrefix))
	require.False(t, s.Valid(onboarding.FieldAccent))
	require.Contains(t, renderSidebar(s, m.theme), "● App settings")
}

func TestSidebarMarks(t *testing.T) {
	m, s := newTestModel(t, nil)
	fillAll(s)
	press(m, "enter", "enter")

	out := renderSidebar(s, m.theme)
	require.Contains(t, out, "✓ Create account")
	require.Contains(t, out, "● App settings")
	require.Contains(t, out, "2 / 4")
}

func TestViewUsesAltScreen(t *testing.T) {
	m, _ := newTestModel(t, nil)
	v := m.View()
	require.True(t, v.AltScreen)
	require.NotNil(t, v.Content)
}
