package onboarding

import "github.com/zerotrust/onboard/internal/validate"

// Minimum lengths of the validated fields.
const (
	MinUsername    = 5
	MinPassword    = 8
	MinIcon        = 3
	MinPrefix      = 1
	MinDisplayName = 2
)

var rules = map[Field]func(string) bool{
	FieldEmail:    validate.Email,
	FieldUsername: func(v string) bool { return validate.Safe(v, MinUsername) },
	FieldPassword: func(v string) bool { return validate.Len(v, MinPassword) },
	// Icons may be a gateway-relative path or an absolute URL.
	FieldIcon:        func(v string) bool { return validate.Safe(v, MinIcon) || validate.URL(v) },
	FieldPrefix:      func(v string) bool { return validate.Safe(v, MinPrefix) },
	FieldAccent:      validate.Color,
	FieldDisplayName: func(v string) bool { return validate.Display(v, MinDisplayName) },
	FieldAddress:     validate.URL,
}

// checkField applies the rule of field to value. Fields without a rule are
// never valid.
func checkField(field Field, value string) bool {
	rule, ok := rules[field]
	if !ok {
		return false
	}
	return rule(value)
}

// Messages shown next to an invalid, non-empty field.
var messages = map[Field]string{
	FieldEmail:       "Please enter a valid email address",
	FieldUsername:    "Please enter a valid username",
	FieldPassword:    "Password must be at least 8 characters",
	FieldIcon:        "Please enter a valid icon url",
	FieldPrefix:      "Please enter a valid prefix",
	FieldAccent:      "Please select an accent color",
	FieldDisplayName: "Please enter a valid display name",
	FieldAddress:     "Please enter a valid address",
}

// Message returns the inline error text for field.
func Message(field Field) string {
	return messages[field]
}
