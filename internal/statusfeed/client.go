package statusfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muurk/netmgr/internal/status"
)

// ErrQueueFull is returned when the arbiter dropped the intent
var ErrQueueFull = errors.New("provisioning intent queue full")

// Client talks to a running netmgr control API
type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
}

// NewClient creates a client for the API at addr ("host:port" or a URL)
func NewClient(addr string) *Client {
	base := addr
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
		dialer:  &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
	}
}

// Status fetches the current status
func (c *Client) Status(ctx context.Context) (status.Status, error) {
	var st status.Status
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return st, fmt.Errorf("failed to reach netmgr at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("status request failed: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("failed to decode status: %w", err)
	}
	return st, nil
}

// RequestProvisioning asks the controller to enter provisioning mode
func (c *Client) RequestProvisioning(ctx context.Context) (ProvisionReply, error) {
	return c.provision(ctx, http.MethodPost)
}

// CancelProvisioning withdraws a provisioning request
func (c *Client) CancelProvisioning(ctx context.Context) (ProvisionReply, error) {
	return c.provision(ctx, http.MethodDelete)
}

func (c *Client) provision(ctx context.Context, method string) (ProvisionReply, error) {
	var reply ProvisionReply
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/provision", nil)
	if err != nil {
		return reply, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return reply, fmt.Errorf("failed to reach netmgr at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return reply, fmt.Errorf("failed to decode reply (%s): %w", resp.Status, err)
	}
	switch resp.StatusCode {
	case http.StatusAccepted:
	case http.StatusServiceUnavailable:
		return reply, ErrQueueFull
	default:
		return reply, fmt.Errorf("provisioning request rejected: %s", resp.Status)
	}
	return reply, nil
}

// Stream calls fn with every status pushed by the server until ctx is
// cancelled or the connection drops.
func (c *Client) Stream(ctx context.Context, fn func(status.Status)) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/status/stream"
	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to open status stream: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.SetReadDeadline(time.Now())
		case <-done:
		}
	}()

	for {
		var st status.Status
		if err := conn.ReadJSON(&st); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("status stream interrupted: %w", err)
		}
		fn(st)
	}
}
