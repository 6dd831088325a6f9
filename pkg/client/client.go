// Package client talks to the TravelBuddy API. Together with Poller it
// replaces server push: callers re-fetch conversations and badge counts on
// fixed intervals.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/1mt4y/travelbuddy/pkg/models"
	"github.com/1mt4y/travelbuddy/pkg/service"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// ClientConfig mirrors GET /api/v1/client-config.
type ClientConfig struct {
	ConversationPollSeconds int `json:"conversationPollSeconds"`
	BadgePollSeconds        int `json:"badgePollSeconds"`
}

// Badges are the two counters shown in navigation.
type Badges struct {
	UnreadMessages  int64
	PendingRequests int64
}

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a token that later calls reuse. It
// returns the caller's user id.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string          `json:"token"`
		User  service.Profile `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.token = out.Token
	c.mu.Unlock()

	return out.User.ID, nil
}

func (c *Client) ClientConfig(ctx context.Context) (*ClientConfig, error) {
	var out ClientConfig
	if err := c.do(ctx, http.MethodGet, "/api/v1/client-config", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendMessage(ctx context.Context, receiverID, content string) (*models.Message, error) {
	var out models.Message
	err := c.do(ctx, http.MethodPost, "/api/v1/messages", map[string]string{
		"receiverId": receiverID,
		"content":    content,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Conversation fetches the thread with otherID. A non-empty sinceID limits
// the result to messages newer than that one.
func (c *Client) Conversation(ctx context.Context, otherID, sinceID string) (*service.Conversation, error) {
	path := "/api/v1/messages/" + url.PathEscape(otherID)
	if sinceID != "" {
		path += "?since=" + url.QueryEscape(sinceID)
	}

	var out service.Conversation
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	return c.count(ctx, "/api/v1/messages/unread-count")
}

func (c *Client) PendingRequestCount(ctx context.Context) (int64, error) {
	return c.count(ctx, "/api/v1/requests/pending-count")
}

func (c *Client) Badges(ctx context.Context) (Badges, error) {
	unread, err := c.UnreadCount(ctx)
	if err != nil {
		return Badges{}, err
	}
	pending, err := c.PendingRequestCount(ctx)
	if err != nil {
		return Badges{}, err
	}
	return Badges{UnreadMessages: unread, PendingRequests: pending}, nil
}

func (c *Client) count(ctx context.Context, path string) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// do sends body as JSON and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "TravelBuddy-Client/1.0")

	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(bodyBytes))}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
