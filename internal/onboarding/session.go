// Package onboarding holds the state of one run of the setup wizard: the
// form records, the per-field validity map, the active page and the
// navigation guard built on top of them.
//
// A Session is created with New when the wizard starts and released with
// Dispose when it ends. Nothing is persisted.
package onboarding

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/zerotrust/onboard/internal/logger"
	"github.com/zerotrust/onboard/internal/steps"
)

// ErrDisposed is returned by reads that need a live session.
var ErrDisposed = errors.New("onboarding session disposed")

// Session is the mutable wizard state. Records returned by Account, Settings
// and Service are shared and must be treated as read-only; every edit
// replaces the record of its domain with a fresh copy.
type Session struct {
	mu sync.Mutex

	reg      *steps.Registry
	app      App
	account  *Account
	settings *Settings
	service  *Service
	page     Page
	valid    map[Field]bool
	disposed bool
}

// Option configures a Session.
type Option func(*Session)

// WithSecret replaces the generated settings secret.
func WithSecret(secret string) Option {
	return func(s *Session) {
		s.settings.Secret = secret
	}
}

// New creates a session over the given step registry.
func New(reg *steps.Registry, opts ...Option) (*Session, error) {
	if reg == nil {
		return nil, errors.New("onboarding: nil step registry")
	}

	s := &Session{
		reg:      reg,
		account:  &Account{},
		settings: &Settings{Secret: newSecret()},
		service:  &Service{},
		valid:    make(map[Field]bool),
	}
	for _, fields := range domainFields {
		for _, f := range fields {
			s.valid[f] = false
		}
	}
	s.setPageLocked(steps.Welcome)

	for _, opt := range opts {
		opt(s)
	}

	logger.Debug("Onboarding session created with %d steps", reg.Len())
	return s, nil
}

// newSecret returns a random opaque token for the settings secret.
func newSecret() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Dispose ends the session. Later mutations are ignored and Snapshot
// returns ErrDisposed.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	s.disposed = true
	s.account = &Account{}
	s.settings = &Settings{}
	s.service = &Service{}
	logger.Debug("Onboarding session disposed")
}

// Disposed reports whether Dispose has been called.
func (s *Session) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Registry returns the step registry the session navigates.
func (s *Session) Registry() *steps.Registry {
	return s.reg
}

// SetApp seeds the settings from the host application. Icon and prefix are
// only copied while they are still empty, so a repeated call cannot clobber
// user edits.
func (s *Session) SetApp(app App) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	s.app = app

	next := *s.settings
	changed := false
	if next.Icon == "" && app.Logo != "" {
		next.Icon = app.Logo
		changed = true
	}
	if next.Prefix == "" && app.Prefix != "" {
		next.Prefix = app.Prefix
		changed = true
	}
	if changed {
		s.settings = &next
	}
}

// App returns the host application descriptor.
func (s *Session) App() App {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.app
}

// Account returns the current account record.
func (s *Session) Account() *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

// Settings returns the current settings record.
func (s *Session) Settings() *Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Service returns the current service record.
func (s *Session) Service() *Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.service
}

// SetField sets one field of one domain. Unknown pairs and the settings
// secret are ignored.
func (s *Session) SetField(domain Domain, field Field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setFieldLocked(domain, field, value)
}

func (s *Session) setFieldLocked(domain Domain, field Field, value string) {
	if s.disposed {
		return
	}

	switch domain {
	case DomainAccount:
		next := *s.account
		switch field {
		case FieldEmail:
			next.Email = value
		case FieldUsername:
			next.Username = value
		case FieldPassword:
			next.Password = value
		default:
			logger.Warn("Ignoring unknown account field %q", field)
			return
		}
		s.account = &next

	case DomainSettings:
		next := *s.settings
		switch field {
		case FieldIcon:
			next.Icon = value
		case FieldPrefix:
			next.Prefix = value
		case FieldAccent:
			next.Accent = value
		default:
			logger.Warn("Ignoring edit of settings field %q", field)
			return
		}
		s.settings = &next

	case DomainServices:
		next := *s.service
		switch field {
		case FieldAddress:
			next.Address = value
		case FieldDisplayName:
			next.DisplayName = value
		default:
			logger.Warn("Ignoring unknown services field %q", field)
			return
		}
		s.service = &next

	default:
		logger.Warn("Ignoring edit in unknown domain %q", domain)
	}
}

// SetSkipped marks the optional service step as skipped or not.
func (s *Session) SetSkipped(skipped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed || s.service.Skipped == skipped {
		return
	}
	next := *s.service
	next.Skipped = skipped
	s.service = &next
}

// SetPage makes index the active step and recomputes Page.Next.
func (s *Session) SetPage(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	s.setPageLocked(index)
}

func (s *Session) setPageLocked(index int) {
	s.page = Page{
		Current: index,
		First:   s.reg.First(),
		Next:    s.reg.Next(index),
	}
}

// Page returns the active page.
func (s *Session) Page() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// SetValid merges flags into the validity map. Only fields belonging to
// domain are taken; the derived checked flag follows on the next read.
func (s *Session) SetValid(domain Domain, flags map[Field]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setValidLocked(domain, flags)
}

func (s *Session) setValidLocked(domain Domain, flags map[Field]bool) {
	if s.disposed {
		return
	}
	for _, f := range domainFields[domain] {
		if v, ok := flags[f]; ok {
			s.valid[f] = v
		}
	}
}

// Valid reports the validity flag of one field.
func (s *Session) Valid(field Field) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid[field]
}

// Validate runs the field rules of domain against the current record and
// stores the results.
func (s *Session) Validate(domain Domain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validateLocked(domain)
}

func (s *Session) validateLocked(domain Domain) {
	flags := make(map[Field]bool, len(domainFields[domain]))
	for _, f := range domainFields[domain] {
		flags[f] = checkField(f, s.valueLocked(f))
	}
	s.setValidLocked(domain, flags)
}

// Edit sets a field and revalidates its domain in one step. This is what a
// form input calls on every change.
func (s *Session) Edit(domain Domain, field Field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setFieldLocked(domain, field, value)
	s.validateLocked(domain)
}

// Value returns the current value of field.
func (s *Session) Value(field Field) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valueLocked(field)
}

func (s *Session) valueLocked(field Field) string {
	switch field {
	case FieldEmail:
		return s.account.Email
	case FieldUsername:
		return s.account.Username
	case FieldPassword:
		return s.account.Password
	case FieldIcon:
		return s.settings.Icon
	case FieldPrefix:
		return s.settings.Prefix
	case FieldAccent:
		return s.settings.Accent
	case FieldSecret:
		return s.settings.Secret
	case FieldDisplayName:
		return s.service.DisplayName
	case FieldAddress:
		return s.service.Address
	default:
		return ""
	}
}

// Snapshot returns a detached copy of the whole state.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return Snapshot{}, ErrDisposed
	}

	valid := make(map[Field]bool, len(s.valid))
	for k, v := range s.valid {
		valid[k] = v
	}
	return Snapshot{
		App:      s.app,
		Account:  *s.account,
		Settings: *s.settings,
		Service:  *s.service,
		Page:     s.page,
		Valid:    valid,
	}, nil
}
