// Package transport opens agent and console channels to devices over websockets.
package transport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"vdt/internal/execution"
	"vdt/internal/install"
)

// Endpoints resolves channel urls and the bearer token used to open them
type Endpoints interface {
	ConsoleURL(ctx context.Context, instanceID string) (string, error)
	AgentURL(descriptor string) string
	Token() string
}

// Dialer opens websocket channels. It implements install.Transport and
// execution.ConsoleDialer.
type Dialer struct {
	endpoints Endpoints
	ws        *websocket.Dialer
	logger    *zap.Logger
}

// NewDialer creates a new Dialer
func NewDialer(endpoints Endpoints, logger *zap.Logger) *Dialer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dialer{
		endpoints: endpoints,
		ws: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 30 * time.Second,
		},
		logger: logger,
	}
}

func (d *Dialer) dial(ctx context.Context, url string) (*websocket.Conn, error) {
	header := http.Header{}
	if token := d.endpoints.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := d.ws.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}

// ConnectAgent opens the agent channel behind descriptor
func (d *Dialer) ConnectAgent(ctx context.Context, descriptor string) (install.AgentChannel, error) {
	conn, err := d.dial(ctx, d.endpoints.AgentURL(descriptor))
	if err != nil {
		return nil, err
	}
	return newAgent(conn, d.logger), nil
}

// ConnectConsole opens the console of an instance for installs
func (d *Dialer) ConnectConsole(ctx context.Context, instanceID string) (install.ConsoleChannel, error) {
	return d.openConsole(ctx, instanceID)
}

// OpenConsole opens the console of an instance for test execution
func (d *Dialer) OpenConsole(ctx context.Context, instanceID string) (execution.Console, error) {
	return d.openConsole(ctx, instanceID)
}

func (d *Dialer) openConsole(ctx context.Context, instanceID string) (*Console, error) {
	url, err := d.endpoints.ConsoleURL(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	conn, err := d.dial(ctx, url)
	if err != nil {
		return nil, err
	}
	return newConsole(conn, d.logger.With(zap.String("instance", instanceID))), nil
}

// deadline returns the context deadline or the zero time
func deadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	return time.Time{}
}
