package onboarding

import "github.com/zerotrust/onboard/internal/steps"

// Domain groups the fields edited on one step.
type Domain string

const (
	DomainAccount  Domain = "account"
	DomainSettings Domain = "settings"
	DomainServices Domain = "services"
)

// Field names one form field. The names match the keys of the validity map.
type Field string

const (
	FieldEmail       Field = "email"
	FieldUsername    Field = "username"
	FieldPassword    Field = "password"
	FieldIcon        Field = "icon"
	FieldPrefix      Field = "prefix"
	FieldAccent      Field = "accent"
	FieldSecret      Field = "secret"
	FieldDisplayName Field = "displayName"
	FieldAddress     Field = "address"
)

// domainFields lists the validated fields of each domain, which are also the
// fields whose conjunction forms the domain's checked flag.
var domainFields = map[Domain][]Field{
	DomainAccount:  {FieldEmail, FieldUsername, FieldPassword},
	DomainSettings: {FieldIcon, FieldPrefix, FieldAccent},
	DomainServices: {FieldDisplayName, FieldAddress},
}

// domainKeys maps a domain to the validity key of the step that edits it.
var domainKeys = map[Domain]steps.ValidityKey{
	DomainAccount:  steps.KeyAccount,
	DomainSettings: steps.KeySettings,
	DomainServices: steps.KeyServices,
}

// DomainFor returns the domain edited on the step with the given key.
func DomainFor(key steps.ValidityKey) (Domain, bool) {
	for d, k := range domainKeys {
		if k == key {
			return d, true
		}
	}
	return "", false
}

// Fields returns the validated fields of d.
func Fields(d Domain) []Field {
	return append([]Field(nil), domainFields[d]...)
}

// App is the host application descriptor the wizard is seeded with.
type App struct {
	Name   string
	Logo   string
	Prefix string
	Accent string
}

// Account is the default account to create.
type Account struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Settings are the application settings chosen in the wizard.
type Settings struct {
	Icon   string `json:"icon"`
	Prefix string `json:"prefix"`
	Accent string `json:"accent"`
	Secret string `json:"secret"`
}

// Service is the optional first downstream service.
type Service struct {
	Address     string
	DisplayName string
	Skipped     bool
}

// Page tracks the active step. Current is steps.Welcome before the first
// step; Next is "" on the last step.
type Page struct {
	Current int
	First   string
	Next    string
}

// Snapshot is a detached copy of the session state.
type Snapshot struct {
	App      App
	Account  Account
	Settings Settings
	Service  Service
	Page     Page
	Valid    map[Field]bool
}

// Status is the sidebar state of a step.
type Status int

const (
	StatusPending Status = iota
	StatusActive
	StatusChecked
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusChecked:
		return "checked"
	default:
		return "pending"
	}
}
