package submit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/zerotrust/onboard/internal/logger"
	"resty.dev/v3"
)

// API is the gateway surface the orchestrator talks to. Both calls return
// the HTTP status; a transport failure is reported as an error with status 0.
type API interface {
	Setup(ctx context.Context, req SetupRequest) (int, error)
	Login(ctx context.Context, prefix string, req LoginRequest) (int, error)
}

// HTTPClient implements API over HTTP.
type HTTPClient struct {
	client *resty.Client
}

// NewHTTPClient creates a client for the gateway at serverURL. A zero
// timeout leaves requests bounded by their context only.
func NewHTTPClient(serverURL string, timeout time.Duration) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", serverURL)
	}

	c := resty.New().
		SetBaseURL(base.String()).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}

	return &HTTPClient{client: c}, nil
}

// Setup posts the setup body to /setup.
func (c *HTTPClient) Setup(ctx context.Context, req SetupRequest) (int, error) {
	return c.post(ctx, "/setup", req)
}

// Login posts the credentials to /{prefix}/api/login.
func (c *HTTPClient) Login(ctx context.Context, prefix string, req LoginRequest) (int, error) {
	return c.post(ctx, prefixPath(prefix, "api/login"), req)
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	return c.client.Close()
}

func (c *HTTPClient) post(ctx context.Context, path string, body any) (int, error) {
	res, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		logger.Warn("POST %s failed: %v", path, err)
		return 0, fmt.Errorf("POST %s: %w", path, err)
	}

	logger.Debug("POST %s -> %d", path, res.StatusCode())
	return res.StatusCode(), nil
}

// DashboardURL joins the server URL and /{prefix}/app.
func DashboardURL(serverURL, prefix string) string {
	return strings.TrimRight(serverURL, "/") + prefixPath(prefix, "app")
}

func prefixPath(prefix, rest string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return "/" + rest
	}
	return "/" + prefix + "/" + rest
}
