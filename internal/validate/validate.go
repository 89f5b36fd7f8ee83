// Package validate holds the field predicates used by the onboarding forms.
//
// Every predicate fails closed: empty or malformed input reports false and
// nothing panics.
package validate

import "regexp"

var (
	urlPattern = regexp.MustCompile(`(?i)^(https?://)?((([a-z\d]([a-z\d-]*[a-z\d])*)\.)+[a-z]{2,}|((\d{1,3}\.){3}\d{1,3}))(:\d+)?(/[-a-z\d%_.~+]*)*(\?[;&a-z\d%_.~+=-]*)?(#[-a-z\d_]*)?$`)

	// Looser than RFC 5322 on purpose: the gateway only needs a login handle.
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9/]+@[a-zA-Z0-9/]+\.[a-zA-Z0-9/]+$`)

	safePattern    = regexp.MustCompile(`^[a-zA-Z0-9_/.-]*$`)
	displayPattern = regexp.MustCompile(`^[a-zA-Z0-9_/. -]*$`)
)

// Colors is the accent palette offered by the settings step.
var Colors = []string{
	"red", "orange", "amber", "yellow", "lime", "green", "emerald", "teal", "cyan",
	"sky", "blue", "indigo", "violet", "purple", "fuchsia", "pink", "rose",
}

// Len reports whether value is at least min bytes long.
func Len(value string, min int) bool {
	return len(value) >= min
}

// URL reports whether value looks like a service address: optional http(s)
// scheme, a dotted domain or IPv4 host, optional port, path, query and fragment.
func URL(value string) bool {
	if value == "" {
		return false
	}
	return urlPattern.MatchString(value)
}

// Email reports whether value has the localpart@domain.tld shape.
func Email(value string) bool {
	return emailPattern.MatchString(value)
}

// Safe reports whether value only holds characters usable in a path segment
// or file name and is at least min bytes long.
func Safe(value string, min int) bool {
	return safePattern.MatchString(value) && len(value) >= min
}

// Display is Safe with spaces allowed, for human facing names.
func Display(value string, min int) bool {
	return displayPattern.MatchString(value) && len(value) >= min
}

// Color reports whether value is one of the accent palette names.
func Color(value string) bool {
	for _, c := range Colors {
		if c == value {
			return true
		}
	}
	return false
}
