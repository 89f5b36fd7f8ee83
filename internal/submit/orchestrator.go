// Package submit sends the collected wizard state to the gateway: one setup
// call, a fixed pause, then one login call whose result decides where the
// wizard goes next.
package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zerotrust/onboard/internal/journal"
	"github.com/zerotrust/onboard/internal/logger"
	"github.com/zerotrust/onboard/internal/onboarding"
)

var (
	// ErrInFlight is returned when a submission is already running.
	ErrInFlight = errors.New("submission already in progress")
	// ErrNotReady is returned when the session cannot be submitted yet.
	ErrNotReady = errors.New("onboarding is not complete")
	// ErrMalformedAddress is returned when the service address cannot be parsed.
	ErrMalformedAddress = errors.New("malformed service address")
	// ErrLoginFailed is returned when the login call does not answer 200.
	ErrLoginFailed = errors.New("login failed")
	// ErrNotFailed is returned by Retry outside of the Failed state.
	ErrNotFailed = errors.New("nothing to retry")
)

// DefaultLoginDelay is the pause between the setup and login calls.
const DefaultLoginDelay = 5 * time.Second

// State is the orchestrator state.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateRedirecting
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateRedirecting:
		return "redirecting"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Recorder receives journal events.
type Recorder interface {
	Publish(ctx context.Context, event journal.Event) (uint64, error)
}

// Result describes a finished submission.
type Result struct {
	State       State
	SetupStatus int
	LoginStatus int
	RedirectURL string
}

// Orchestrator runs submissions for one session.
type Orchestrator struct {
	session    *onboarding.Session
	api        API
	serverURL  string
	loginDelay time.Duration
	recorder   Recorder
	id         string
	wait       func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	state  State
	result Result
	// login holds the credentials of the last setup so Retry does not
	// depend on later session edits.
	login  LoginRequest
	prefix string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLoginDelay overrides DefaultLoginDelay.
func WithLoginDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.loginDelay = d
		}
	}
}

// WithRecorder publishes every transition to r.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithJournalID sets the session name used for journal subjects.
func WithJournalID(id string) Option {
	return func(o *Orchestrator) {
		if id != "" {
			o.id = id
		}
	}
}

// New creates an orchestrator. serverURL is the base the redirect target is
// resolved against.
func New(session *onboarding.Session, api API, serverURL string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		session:    session,
		api:        api,
		serverURL:  serverURL,
		loginDelay: DefaultLoginDelay,
		id:         uuid.NewString(),
		wait:       sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ID returns the journal session name.
func (o *Orchestrator) ID() string {
	return o.id
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Result returns the outcome of the last finished run.
func (o *Orchestrator) Result() Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.result
}

// Submit runs the full protocol. It returns ErrInFlight without any call
// when another submission is running.
func (o *Orchestrator) Submit(ctx context.Context) (Result, error) {
	o.mu.Lock()
	if o.state != StateIdle {
		st := o.state
		o.mu.Unlock()
		if st == StateSubmitting {
			return Result{}, ErrInFlight
		}
		return o.Result(), fmt.Errorf("cannot submit from state %s", st)
	}
	if !o.session.CanSubmit() {
		o.mu.Unlock()
		return Result{}, ErrNotReady
	}
	o.state = StateSubmitting
	o.mu.Unlock()
	o.record(ctx, journal.Event{Kind: journal.KindState, State: StateSubmitting.String()})

	if err := o.runSetup(ctx); err != nil {
		o.reset(ctx, StateIdle, err)
		return Result{}, err
	}
	return o.runLogin(ctx)
}

// runSetup sends the setup body built from a fresh snapshot and captures the
// credentials for the login step. Errors are returned only for failures that
// happen before the network call.
func (o *Orchestrator) runSetup(ctx context.Context) error {
	snap, err := o.session.Snapshot()
	if err != nil {
		return err
	}

	payload, err := BuildPayload(snap)
	if err != nil {
		logger.Warn("Submission aborted: %v", err)
		return err
	}

	status, err := o.api.Setup(ctx, payload)
	switch {
	case err != nil:
		logger.Warn("Setup call failed, attempting login anyway: %v", err)
		o.record(ctx, journal.Event{Kind: journal.KindSetup, Status: status, Detail: err.Error()})
	case status != 200:
		logger.Warn("Setup returned %d, attempting login anyway", status)
		o.record(ctx, journal.Event{Kind: journal.KindSetup, Status: status, Detail: "setup did not return 200"})
	default:
		logger.Info("Setup completed")
		o.record(ctx, journal.Event{Kind: journal.KindSetup, Status: status})
	}

	o.mu.Lock()
	o.result = Result{SetupStatus: status}
	o.login = NewLoginRequest(snap.Account)
	o.prefix = snap.Settings.Prefix
	o.mu.Unlock()
	return nil
}

// Retry recovers from a failure. When the setup call of the failed run
// returned 200 only the login is repeated with the captured credentials.
// Otherwise the whole protocol runs again from the current session.
func (o *Orchestrator) Retry(ctx context.Context) (Result, error) {
	o.mu.Lock()
	if o.state != StateFailed {
		st := o.state
		o.mu.Unlock()
		if st == StateSubmitting {
			return Result{}, ErrInFlight
		}
		return Result{}, ErrNotFailed
	}
	setupDone := o.result.SetupStatus == 200
	if !setupDone && !o.session.CanSubmit() {
		res := o.result
		o.mu.Unlock()
		return res, ErrNotReady
	}
	o.state = StateSubmitting
	o.mu.Unlock()
	o.record(ctx, journal.Event{Kind: journal.KindState, State: StateSubmitting.String(), Detail: "retry"})

	if !setupDone {
		if err := o.runSetup(ctx); err != nil {
			o.reset(ctx, StateFailed, err)
			return o.Result(), err
		}
	}
	return o.runLogin(ctx)
}

func (o *Orchestrator) runLogin(ctx context.Context) (Result, error) {
	if err := o.wait(ctx, o.loginDelay); err != nil {
		return o.fail(ctx, 0, err)
	}

	o.mu.Lock()
	req, prefix := o.login, o.prefix
	o.mu.Unlock()

	status, err := o.api.Login(ctx, prefix, req)
	if err != nil {
		o.record(ctx, journal.Event{Kind: journal.KindLogin, Status: status, Detail: err.Error()})
		return o.fail(ctx, status, err)
	}
	o.record(ctx, journal.Event{Kind: journal.KindLogin, Status: status})
	if status != 200 {
		return o.fail(ctx, status, fmt.Errorf("login returned %d", status))
	}

	o.mu.Lock()
	o.state = StateRedirecting
	o.result.State = StateRedirecting
	o.result.LoginStatus = status
	o.result.RedirectURL = DashboardURL(o.serverURL, prefix)
	res := o.result
	o.mu.Unlock()

	logger.Info("Login succeeded, redirecting to %s", res.RedirectURL)
	o.record(ctx, journal.Event{Kind: journal.KindState, State: StateRedirecting.String(), Detail: res.RedirectURL})
	return res, nil
}

func (o *Orchestrator) fail(ctx context.Context, status int, cause error) (Result, error) {
	o.mu.Lock()
	o.state = StateFailed
	o.result.State = StateFailed
	o.result.LoginStatus = status
	o.result.RedirectURL = ""
	res := o.result
	o.mu.Unlock()

	logger.Warn("Login failed: %v", cause)
	o.record(ctx, journal.Event{Kind: journal.KindState, State: StateFailed.String(), Status: status, Detail: cause.Error()})
	return res, fmt.Errorf("%w: %w", ErrLoginFailed, cause)
}

// reset moves back to state after a run that never reached the network.
func (o *Orchestrator) reset(ctx context.Context, state State, cause error) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()
	o.record(ctx, journal.Event{Kind: journal.KindState, State: state.String(), Detail: cause.Error()})
}

func (o *Orchestrator) record(ctx context.Context, event journal.Event) {
	if o.recorder == nil {
		return
	}
	event.Session = o.id
	if _, err := o.recorder.Publish(context.WithoutCancel(ctx), event); err != nil {
		logger.Warn("Journal publish failed: %v", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
