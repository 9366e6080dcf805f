package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultRequestTimeout = 10 * time.Second

// ErrMissingDeviceToken indicates a send without a destination token.
var ErrMissingDeviceToken = errors.New("push: device token required")

// Notification addresses one installed client instance by its device token.
type Notification struct {
	DeviceToken string
	Title       string
	Body        string
	Data        map[string]interface{}
}

// ClientConfig configures the push provider client.
type ClientConfig struct {
	Endpoint   string
	HTTPClient *http.Client
}

// Client delivers push notifications through the Expo-compatible HTTP API.
// Delivery is best effort: callers are expected to log failures and move on.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient constructs a push client for the configured endpoint.
func NewClient(cfg ClientConfig) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("push: endpoint is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}, nil
}

type sendRequestPayload struct {
	To    string                 `json:"to"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data,omitempty"`
	Sound string                 `json:"sound"`
}

// Send posts one notification. A transport error or non-2xx response is
// returned to the caller; it never panics or retries.
func (c *Client) Send(ctx context.Context, notification Notification) error {
	if strings.TrimSpace(notification.DeviceToken) == "" {
		return ErrMissingDeviceToken
	}

	payload, err := json.Marshal(sendRequestPayload{
		To:    notification.DeviceToken,
		Title: notification.Title,
		Body:  notification.Body,
		Data:  notification.Data,
		Sound: "default",
	})
	if err != nil {
		return err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(response.Body, 256))
		return fmt.Errorf("push: provider returned %d: %s", response.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
