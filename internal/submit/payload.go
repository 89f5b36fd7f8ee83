package submit

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/zerotrust/onboard/internal/onboarding"
)

// SetupRequest is the body of the setup call.
type SetupRequest struct {
	Account  onboarding.Account  `json:"account"`
	Settings onboarding.Settings `json:"settings"`
	Service  *ServicePayload     `json:"service,omitempty"`
}

// ServicePayload describes the first downstream service.
type ServicePayload struct {
	Name    string `json:"name"`
	Display string `json:"display"`
	Address string `json:"address"`
	Port    int    `json:"port"`
	TLS     bool   `json:"tls"`
}

// LoginRequest is the body of the login call.
type LoginRequest struct {
	Remember bool   `json:"remember"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// BuildPayload turns a session snapshot into the setup body. The service is
// left out when the step was skipped.
func BuildPayload(snap onboarding.Snapshot) (SetupRequest, error) {
	req := SetupRequest{
		Account:  snap.Account,
		Settings: snap.Settings,
	}
	if snap.Service.Skipped {
		return req, nil
	}

	svc, err := buildService(snap.Service)
	if err != nil {
		return SetupRequest{}, err
	}
	req.Service = svc
	return req, nil
}

// NewLoginRequest builds the login body from the account record.
func NewLoginRequest(account onboarding.Account) LoginRequest {
	return LoginRequest{
		Remember: true,
		Email:    account.Email,
		Password: account.Password,
	}
}

func buildService(service onboarding.Service) (*ServicePayload, error) {
	host, port, tls, err := parseAddress(service.Address)
	if err != nil {
		return nil, err
	}
	return &ServicePayload{
		Name:    slug.Make(service.DisplayName),
		Display: service.DisplayName,
		Address: host,
		Port:    port,
		TLS:     tls,
	}, nil
}

// parseAddress splits a service address into host, port and TLS flag.
// Addresses without a scheme are read as plain http.
func parseAddress(raw string) (host string, port int, tls bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0, false, fmt.Errorf("%w: empty address", ErrMalformedAddress)
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("%w: %v", ErrMalformedAddress, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "https":
		tls = true
		port = 443
	case "http":
		port = 80
	default:
		return "", 0, false, fmt.Errorf("%w: unsupported scheme %q", ErrMalformedAddress, u.Scheme)
	}

	host = u.Hostname()
	if host == "" {
		return "", 0, false, fmt.Errorf("%w: missing host in %q", ErrMalformedAddress, raw)
	}

	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return "", 0, false, fmt.Errorf("%w: invalid port %q", ErrMalformedAddress, p)
		}
	}
	return host, port, tls, nil
}
