package submit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zerotrust/onboard/internal/onboarding"
)

func testSnapshot() onboarding.Snapshot {
	return onboarding.Snapshot{
		Account:  onboarding.Account{Email: "james@bond.com", Username: "jbond", Password: "shaken-not-stirred"},
		Settings: onboarding.Settings{Icon: "/_zero/static/logo.png", Prefix: "_zero", Accent: "indigo", Secret: "s3cr3t"},
		Service:  onboarding.Service{Address: "https://example.com:8443", DisplayName: "Example Service"},
	}
}

func TestBuildPayload(t *testing.T) {
	req, err := BuildPayload(testSnapshot())
	require.NoError(t, err)
	require.Equal(t, "jbond", req.Account.Username)
	require.Equal(t, "s3cr3t", req.Settings.Secret)
	require.Equal(t, &ServicePayload{
		Name:    "example-service",
		Display: "Example Service",
		Address: "example.com",
		Port:    8443,
		TLS:     true,
	}, req.Service)
}

func TestBuildPayloadSkippedServiceOmitsKey(t *testing.T) {
	snap := testSnapshot()
	snap.Service.Skipped = true
	snap.Service.Address = "not an address"

	req, err := BuildPayload(snap)
	require.NoError(t, err)
	require.Nil(t, req.Service)

	data, err := json.Marshal(req)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "account")
	require.Contains(t, raw, "settings")
	require.NotContains(t, raw, "service")
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		raw     string
		host    string
		port    int
		tls     bool
		wantErr bool
	}{
		{raw: "https://example.com:8443", host: "example.com", port: 8443, tls: true},
		{raw: "https://example.com", host: "example.com", port: 443, tls: true},
		{raw: "http://example.com/path?q=1", host: "example.com", port: 80},
		{raw: "example.com", host: "example.com", port: 80},
		{raw: "10.0.0.1:9000", host: "10.0.0.1", port: 9000},
		{raw: "HTTPS://Example.com", host: "Example.com", port: 443, tls: true},
		{raw: "", wantErr: true},
		{raw: "ftp://example.com", wantErr: true},
		{raw: "http://", wantErr: true},
		{raw: "http://example.com:99999", wantErr: true},
		{raw: "http://exa mple.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			host, port, tls, err := parseAddress(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedAddress)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.host, host)
			require.Equal(t, tt.port, port)
			require.Equal(t, tt.tls, tls)
		})
	}
}

func TestNewLoginRequest(t *testing.T) {
	req := NewLoginRequest(onboarding.Account{Email: "a@b.com", Username: "ignored", Password: "password1"})
	require.Equal(t, LoginRequest{Remember: true, Email: "a@b.com", Password: "password1"}, req)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	require.JSONEq(t, `{"remember":true,"email":"a@b.com","password":"password1"}`, string(data))
}
