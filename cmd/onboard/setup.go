package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zerotrust/onboard/internal/config"
	"github.com/zerotrust/onboard/internal/journal"
	"github.com/zerotrust/onboard/internal/logger"
	"github.com/zerotrust/onboard/internal/onboarding"
	"github.com/zerotrust/onboard/internal/steps"
	"github.com/zerotrust/onboard/internal/submit"
	"github.com/zerotrust/onboard/internal/tui/wizard"
)

var setupFlags struct {
	server         string
	loginDelay     time.Duration
	headless       bool
	email          string
	username       string
	password       string
	icon           string
	prefix         string
	accent         string
	serviceName    string
	serviceAddress string
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Run the onboarding wizard against a gateway",
	Long: `Run the onboarding wizard against a gateway.

The wizard collects the administrator account, the gateway settings and an
optional first service, then posts them to the gateway's /setup endpoint and
signs in. Without --headless a full-screen TUI guides through the steps.
With --headless the values come from flags; leaving both service flags empty
skips the service step.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	f := setupCmd.Flags()
	f.StringVar(&setupFlags.server, "server", "", "Gateway base URL (default from config)")
	f.DurationVar(&setupFlags.loginDelay, "login-delay", -1, "Pause between setup and login (default from config)")
	f.BoolVar(&setupFlags.headless, "headless", false, "Run without TUI, taking values from flags")
	f.StringVar(&setupFlags.email, "email", "", "Administrator email")
	f.StringVar(&setupFlags.username, "username", "", "Administrator username")
	f.StringVar(&setupFlags.password, "password", "", "Administrator password (or ONBOARD_PASSWORD)")
	f.StringVar(&setupFlags.icon, "icon", "", "Gateway icon path or URL (default from config)")
	f.StringVar(&setupFlags.prefix, "prefix", "", "Gateway route prefix (default from config)")
	f.StringVar(&setupFlags.accent, "accent", "", "Accent color (default from config)")
	f.StringVar(&setupFlags.serviceName, "service-name", "", "Display name of the first service")
	f.StringVar(&setupFlags.serviceAddress, "service-address", "", "Address of the first service")
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if setupFlags.server != "" {
		cfg.ServerURL = setupFlags.server
	}
	if setupFlags.loginDelay >= 0 {
		cfg.LoginDelay = setupFlags.loginDelay
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := onboarding.New(steps.Default())
	if err != nil {
		return err
	}
	defer session.Dispose()
	session.SetApp(onboarding.App{
		Name:   cfg.App.Name,
		Logo:   cfg.App.Logo,
		Prefix: cfg.App.Prefix,
		Accent: cfg.App.Accent,
	})

	client, err := submit.NewHTTPClient(cfg.ServerURL, cfg.RequestTimeout)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	jr, err := journal.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := jr.Close(); err != nil {
			logger.Warn("Closing journal: %v", err)
		}
	}()

	orch := submit.New(session, client, cfg.ServerURL,
		submit.WithLoginDelay(cfg.LoginDelay),
		submit.WithRecorder(jr),
	)
	logger.Info("Onboarding %s at %s (journal %s)", cfg.App.Name, cfg.ServerURL, orch.ID())

	if setupFlags.headless {
		return runHeadless(ctx, cmd.OutOrStdout(), cfg, session, orch, jr)
	}

	result, err := wizard.Run(ctx, session, orch)
	if err != nil {
		if errors.Is(err, wizard.ErrCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Onboarding cancelled.")
			return nil
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is ready: %s\n", cfg.App.Name, result.RedirectURL)
	return nil
}

// runHeadless fills the session from flags, walks every step through the
// navigation guard and submits.
func runHeadless(ctx context.Context, out io.Writer, cfg *config.Config, session *onboarding.Session, orch *submit.Orchestrator, jr *journal.Journal) error {
	password := setupFlags.password
	if password == "" {
		password = os.Getenv("ONBOARD_PASSWORD")
	}

	edits := []struct {
		domain onboarding.Domain
		field  onboarding.Field
		value  string
	}{
		{onboarding.DomainAccount, onboarding.FieldEmail, setupFlags.email},
		{onboarding.DomainAccount, onboarding.FieldUsername, setupFlags.username},
		{onboarding.DomainAccount, onboarding.FieldPassword, password},
		{onboarding.DomainSettings, onboarding.FieldIcon, setupFlags.icon},
		{onboarding.DomainSettings, onboarding.FieldPrefix, setupFlags.prefix},
		{onboarding.DomainSettings, onboarding.FieldAccent, firstNonEmpty(setupFlags.accent, cfg.App.Accent)},
		{onboarding.DomainServices, onboarding.FieldDisplayName, setupFlags.serviceName},
		{onboarding.DomainServices, onboarding.FieldAddress, setupFlags.serviceAddress},
	}
	for _, e := range edits {
		if e.value != "" {
			session.Edit(e.domain, e.field, e.value)
		}
	}
	for _, d := range []onboarding.Domain{onboarding.DomainAccount, onboarding.DomainSettings, onboarding.DomainServices} {
		session.Validate(d)
	}
	if setupFlags.serviceName == "" && setupFlags.serviceAddress == "" {
		session.SetSkipped(true)
	}

	if err := walkSteps(session); err != nil {
		return err
	}

	result, err := orch.Submit(ctx)
	printTranscript(ctx, out, jr, orch.ID())
	if err != nil {
		return fmt.Errorf("onboarding failed: %w", err)
	}

	fmt.Fprintf(out, "%s is ready: %s\n", cfg.App.Name, result.RedirectURL)
	return nil
}

// walkSteps advances from the welcome screen to the last step, stopping at
// the first step the guard refuses.
func walkSteps(session *onboarding.Session) error {
	reg := session.Registry()
	for !reg.IsLast(session.Page().Current) {
		if _, ok := session.Advance(onboarding.TriggerNext); ok {
			continue
		}

		current := session.Page().Current
		step, _ := reg.Step(current)
		var problems []string
		if d, ok := onboarding.DomainFor(step.ValidityKey); ok {
			for _, f := range onboarding.Fields(d) {
				if !session.Valid(f) {
					problems = append(problems, fmt.Sprintf("%s: %s", f, onboarding.Message(f)))
				}
			}
		}
		return fmt.Errorf("step %q is incomplete:\n  %s", step.Name, strings.Join(problems, "\n  "))
	}
	return nil
}

func printTranscript(ctx context.Context, out io.Writer, jr *journal.Journal, id string) {
	events, err := jr.History(ctx, id)
	if err != nil {
		logger.Warn("Reading journal: %v", err)
		return
	}
	for _, ev := range events {
		fmt.Fprintln(out, ev.String())
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
