package chatops

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"drinktab/models"
)

// APIError reports a non-2xx response from the ChatOps API
type APIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chatops API error: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Config holds the credentials and addressing for the ChatOps platform.
// Tokens are injected here, never embedded as literals.
type Config struct {
	Host      string // e.g. https://chat.example.vn
	AuthToken string // session token, sent as the MMAUTHTOKEN cookie
	CSRFToken string
	TeamID    string
	Timeout   time.Duration
}

// Client is a minimal client for the Mattermost-compatible ChatOps API (v4)
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a new ChatOps client
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

type post struct {
	ID        string `json:"id,omitempty"`
	ChannelID string `json:"channel_id"`
	Message   string `json:"message"`
	RootID    string `json:"root_id,omitempty"`
}

type channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreatePost posts a top-level message to a channel and returns the post id
func (c *Client) CreatePost(ctx context.Context, channelID, message string) (string, error) {
	return c.createPost(ctx, post{ChannelID: channelID, Message: message})
}

// ReplyToPost posts a reply inside the thread rooted at rootID
func (c *Client) ReplyToPost(ctx context.Context, channelID, message, rootID string) (string, error) {
	return c.createPost(ctx, post{ChannelID: channelID, Message: message, RootID: rootID})
}

func (c *Client) createPost(ctx context.Context, p post) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode post: %w", err)
	}

	var created post
	if err := c.do(ctx, http.MethodPost, "/api/v4/posts", bytes.NewReader(body), &created); err != nil {
		return "", err
	}

	return created.ID, nil
}

// AutocompleteUsers searches ChatOps users by name within the configured team.
// Queries shorter than two characters return no results.
func (c *Client) AutocompleteUsers(ctx context.Context, name string) ([]*models.ChatOpsUser, error) {
	if len(name) < 2 {
		return nil, nil
	}

	endpoint := fmt.Sprintf("/api/v4/users/autocomplete?in_team=%s&in_channel=&limit=25&name=%s",
		url.QueryEscape(c.cfg.TeamID), url.QueryEscape(name))

	var result struct {
		Users []*models.ChatOpsUser `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}

	return result.Users, nil
}

// FindChannelForUser returns the id of the first channel in the configured
// team whose name contains the given user id, or "" when none matches.
// Direct-message channel names embed both member ids.
func (c *Client) FindChannelForUser(ctx context.Context, userID string) (string, error) {
	endpoint := fmt.Sprintf("/api/v4/users/me/teams/%s/channels?include_deleted=true",
		url.PathEscape(c.cfg.TeamID))

	var channels []channel
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &channels); err != nil {
		return "", err
	}

	for _, ch := range channels {
		if strings.Contains(ch.Name, userID) {
			return ch.ID, nil
		}
	}

	return "", nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.Host+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cookie", "MMAUTHTOKEN="+c.cfg.AuthToken)
	if c.cfg.CSRFToken != "" {
		req.Header.Set("X-CSRF-Token", c.cfg.CSRFToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("chatops request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read chatops response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: strings.TrimSpace(string(respBody))}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode chatops response: %w", err)
		}
	}

	return nil
}
