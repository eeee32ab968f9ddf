// Package corellium is a REST client for the Corellium virtual device farm.
package corellium

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"vdt/internal/domain"
)

// Options configure a Client
type Options struct {
	Endpoint     string        // e.g. https://app.corellium.com
	RateLimit    float64       // Requests per second, zero for unlimited
	RateBurst    int
	PollInterval time.Duration // First delay between readiness polls
	MaxBackoff   time.Duration // Upper bound of the readiness poll delay
	HTTPTimeout  time.Duration
}

// Client handles API calls to the device farm. It implements fleet.Provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	opts       Options
	logger     *zap.Logger

	mu    sync.RWMutex
	token string
}

// APIError represents an error response from the API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// NewClient creates a new Client for the given endpoint
func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 30 * time.Second
	}
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	return &Client{
		baseURL:    strings.TrimSuffix(opts.Endpoint, "/") + "/api/v1",
		httpClient: &http.Client{Timeout: opts.HTTPTimeout},
		limiter:    limiter,
		opts:       opts,
		logger:     logger,
	}
}

// Authorize logs in with the credentials. A credential token is used as is.
func (c *Client) Authorize(ctx context.Context, creds domain.Credentials) error {
	if creds.Token != "" {
		c.setToken(creds.Token)
		return nil
	}

	var resp loginResponse
	req := loginRequest{Username: creds.Username, Password: creds.Password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	if resp.Token == "" {
		return errors.New("authorization failed: empty token")
	}
	c.setToken(resp.Token)
	return nil
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the bearer token obtained by Authorize
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ProjectID returns the id of the project with the given name
func (c *Client) ProjectID(ctx context.Context, name string) (string, error) {
	var projects []project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return "", err
	}
	for _, p := range projects {
		if p.Name == name {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("project %q not found", name)
}

// ListInstances returns all instances of a project
func (c *Client) ListInstances(ctx context.Context, projectID string) ([]domain.Instance, error) {
	var raw []instance
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/instances", nil, &raw); err != nil {
		return nil, err
	}
	instances := make([]domain.Instance, 0, len(raw))
	for _, inst := range raw {
		instances = append(instances, inst.toDomain())
	}
	return instances, nil
}

// Instance returns one instance
func (c *Client) Instance(ctx context.Context, id string) (domain.Instance, error) {
	var raw instance
	if err := c.do(ctx, http.MethodGet, "/instances/"+url.PathEscape(id), nil, &raw); err != nil {
		return domain.Instance{}, err
	}
	return raw.toDomain(), nil
}

// StartInstance powers on an instance. It does not wait for the boot.
func (c *Client) StartInstance(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/instances/"+url.PathEscape(id)+"/start", struct{}{}, nil)
}

// CreateInstance creates a new instance
func (c *Client) CreateInstance(ctx context.Context, spec domain.InstanceSpec) (domain.Instance, error) {
	req := createRequest{
		Project: spec.ProjectID,
		Name:    spec.Name,
		Flavor:  spec.Flavor,
		OS:      spec.OS,
		BootOptions: bootOptions{
			Screen:         spec.Screen,
			AdditionalTags: spec.Tags,
		},
	}
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/instances", req, &resp); err != nil {
		return domain.Instance{}, err
	}
	return domain.Instance{ID: resp.ID, Name: spec.Name, State: domain.StateTransitional}, nil
}

// WaitUntilReady polls the instance until it is on and its agent is reachable.
// The poll delay doubles from PollInterval up to MaxBackoff. Transient poll
// failures are retried; other API errors end the wait.
func (c *Client) WaitUntilReady(ctx context.Context, id string) error {
	delay := c.opts.PollInterval
	for {
		inst, err := c.Instance(ctx, id)
		switch {
		case err != nil && ctx.Err() != nil:
			return fmt.Errorf("%w: %s: %v", domain.ErrNotReady, id, ctx.Err())
		case err != nil && !IsTransient(err):
			return err
		case err != nil:
			c.logger.Warn("instance poll failed", zap.String("instance", id), zap.Error(err), zap.Duration("retry_in", delay))
		case inst.State == domain.StateOn && inst.Agent != "":
			return nil
		case inst.State == domain.StateUnavailable:
			return fmt.Errorf("%w: %s is unavailable", domain.ErrNotReady, id)
		default:
			c.logger.Debug("instance not ready yet", zap.String("instance", id), zap.String("state", string(inst.State)), zap.Duration("retry_in", delay))
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s: %v", domain.ErrNotReady, id, ctx.Err())
		case <-time.After(delay):
		}

		delay *= 2
		if delay > c.opts.MaxBackoff {
			delay = c.opts.MaxBackoff
		}
	}
}

// IsTransient reports whether a failed request may succeed when retried:
// network errors, rate limiting and server errors.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED)
}

// ConsoleURL returns the websocket url of the instance console
func (c *Client) ConsoleURL(ctx context.Context, id string) (string, error) {
	var resp consoleResponse
	if err := c.do(ctx, http.MethodGet, "/instances/"+url.PathEscape(id)+"/console", nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// AgentURL returns the websocket url of the agent behind a descriptor
func (c *Client) AgentURL(agent string) string {
	u := strings.Replace(c.baseURL, "http", "ws", 1)
	return u + "/agent/" + url.PathEscape(agent)
}

// do sends a JSON request and decodes the JSON response into out when non-nil
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		bodyBytes, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if token := c.Token(); token != "" {
		httpReq.Header.Add("Authorization", "Bearer "+token)
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
