package onboarding

import (
	"github.com/zerotrust/onboard/internal/logger"
	"github.com/zerotrust/onboard/internal/steps"
)

// Trigger identifies what asked the wizard to move forward.
type Trigger int

const (
	TriggerNext  Trigger = iota // the Next button
	TriggerEnter                // the Enter accelerator
)

func (t Trigger) String() string {
	if t == TriggerEnter {
		return "enter"
	}
	return "next"
}

// Checked reports the derived flag of key: the conjunction of the validity
// of exactly the fields behind it. It is computed on every call.
func (s *Session) Checked(key steps.ValidityKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkedLocked(key)
}

func (s *Session) checkedLocked(key steps.ValidityKey) bool {
	for d, k := range domainKeys {
		if k != key {
			continue
		}
		for _, f := range domainFields[d] {
			if !s.valid[f] {
				return false
			}
		}
		return true
	}
	return false
}

// AccountChecked reports whether every account field is valid.
func (s *Session) AccountChecked() bool { return s.Checked(steps.KeyAccount) }

// SettingsChecked reports whether every settings field is valid.
func (s *Session) SettingsChecked() bool { return s.Checked(steps.KeySettings) }

// ServicesChecked reports whether every service field is valid.
func (s *Session) ServicesChecked() bool { return s.Checked(steps.KeyServices) }

// CanAdvance reports whether the wizard may move past step i.
func (s *Session) CanAdvance(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canAdvanceLocked(i)
}

func (s *Session) canAdvanceLocked(i int) bool {
	if i < 0 {
		return true
	}
	key := s.reg.ValidityKey(i)
	if key == "" {
		if s.reg.IsLast(i) {
			return s.canSubmitLocked()
		}
		return true
	}
	if key == steps.KeyServices && s.service.Skipped {
		return true
	}
	return s.checkedLocked(key)
}

// CanSubmit reports whether every step is complete. The services key is
// left out while the service step is skipped.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canSubmitLocked()
}

func (s *Session) canSubmitLocked() bool {
	for _, key := range s.reg.Keys() {
		if key == steps.KeyServices && s.service.Skipped {
			continue
		}
		if !s.checkedLocked(key) {
			return false
		}
	}
	return true
}

// Advance moves to the next step when the guard of the current step holds.
// Both the Next button and the Enter key go through here. It returns the new
// slug and whether the move happened; the last step never advances, leaving
// it is the submission's job.
func (s *Session) Advance(trigger Trigger) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return "", false
	}
	current := s.page.Current
	if s.reg.IsLast(current) || !s.canAdvanceLocked(current) {
		logger.Debug("Advance (%s) refused at step %d", trigger, current)
		return "", false
	}

	s.setPageLocked(current + 1)
	logger.Debug("Advance (%s) to %s", trigger, s.reg.Next(current))
	return s.reg.Next(current), true
}

// Back moves to the previous step, down to the welcome step. It returns the
// new slug ("" for welcome) and whether the page changed.
func (s *Session) Back() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed || s.page.Current <= steps.Welcome {
		return "", false
	}
	slug := s.reg.Prev(s.page.Current)
	s.setPageLocked(s.page.Current - 1)
	return slug, true
}

// StepStatus returns the sidebar status of step i. A skipped service step
// counts as checked.
func (s *Session) StepStatus(i int) Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.reg.ValidityKey(i)
	checked := key != "" && s.checkedLocked(key)
	if key == steps.KeyServices && s.service.Skipped {
		checked = true
	}

	switch {
	case checked:
		return StatusChecked
	case s.page.Current == i:
		return StatusActive
	default:
		return StatusPending
	}
}

// Progress returns the 1-based position of the active step and the number
// of steps. The welcome step is position 0.
func (s *Session) Progress() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page.Current + 1, s.reg.Len()
}
