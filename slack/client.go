// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/slackline/slackline/lib/netutil"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the root of the workspace HTTP API
	// (e.g., "https://slack.com/api").
	BaseURL string
	// Token is the session token sent with every request.
	Token string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client is an authenticated workspace API client. It is the bridge's
// side channel: every request outside the realtime socket goes through
// it.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a workspace API client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("slack: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("slack: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if config.Token == "" {
		return nil, fmt.Errorf("slack: Token is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		token:      config.Token,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CloseIdleConnections drops idle HTTP connections from the transport
// pool. Called after a network disruption so the next request opens a
// fresh TCP connection instead of reusing a poisoned one.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Call performs a side-channel request against the named endpoint with
// a flat parameter set. On {ok:true} it returns the full response body
// for the caller to decode; on {ok:false} it returns an *APIError with
// the server's reason. The token is attached automatically.
func (c *Client) Call(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("token", c.token)

	requestURL := c.baseURL + "/" + endpoint + "?" + params.Encode()
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("slack: creating %s request: %w", endpoint, err)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("slack: %s request failed: %w", endpoint, err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("slack: reading %s response: %w", endpoint, err)
	}

	// The API reports errors in-band: HTTP status is 200 even for
	// failures, and the envelope carries ok/error.
	var envelope struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("slack: unexpected %s response (status %d): %w",
			endpoint, response.StatusCode, err)
	}
	if !envelope.OK {
		return nil, &APIError{Endpoint: endpoint, Reason: envelope.Error}
	}
	return body, nil
}

// RTMStart fetches the full directory snapshot and the realtime socket
// URL. There is no valid session without it: a missing entity list or
// an empty socket URL is an error, not a degraded snapshot.
func (c *Client) RTMStart(ctx context.Context) (*Snapshot, error) {
	body, err := c.Call(ctx, "rtm.start", nil)
	if err != nil {
		return nil, fmt.Errorf("slack: fetching directory snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		return nil, fmt.Errorf("slack: parsing directory snapshot: %w", err)
	}

	for _, list := range []struct {
		name    string
		entries []Entity
	}{
		{"users", snapshot.Users},
		{"channels", snapshot.Channels},
		{"groups", snapshot.Groups},
		{"ims", snapshot.IMs},
		{"bots", snapshot.Bots},
	} {
		if list.entries == nil {
			return nil, fmt.Errorf("slack: directory snapshot missing %s list", list.name)
		}
	}
	if snapshot.URL == "" {
		return nil, fmt.Errorf("slack: directory snapshot missing socket URL")
	}
	return &snapshot, nil
}

// conversationKind maps an id's type prefix to the endpoint family for
// history and mark-read calls. Returns "" for unrecognized prefixes.
func conversationKind(id string) string {
	switch {
	case strings.HasPrefix(id, "C"):
		return "channels"
	case strings.HasPrefix(id, "G"):
		return "groups"
	case strings.HasPrefix(id, "D"):
		return "im"
	default:
		return ""
	}
}

// History fetches the last count messages for the conversation,
// newest-first as the API returns them. The endpoint family is chosen
// by the id's type prefix; an unrecognized prefix is an error.
func (c *Client) History(ctx context.Context, conversationID string, count int) ([]Message, error) {
	kind := conversationKind(conversationID)
	if kind == "" {
		return nil, fmt.Errorf("slack: no history endpoint for id %q", conversationID)
	}

	params := url.Values{}
	params.Set("channel", conversationID)
	params.Set("count", strconv.Itoa(count))
	body, err := c.Call(ctx, kind+".history", params)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Messages []Message `json:"messages"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("slack: parsing %s.history response: %w", kind, err)
	}
	return payload.Messages, nil
}

// MarkRead moves the conversation's read cursor to the given message
// timestamp.
func (c *Client) MarkRead(ctx context.Context, conversationID, timestamp string) error {
	kind := conversationKind(conversationID)
	if kind == "" {
		return fmt.Errorf("slack: no mark endpoint for id %q", conversationID)
	}

	params := url.Values{}
	params.Set("channel", conversationID)
	params.Set("ts", timestamp)
	_, err := c.Call(ctx, kind+".mark", params)
	return err
}

// Mentions fetches the most recent mentions of the connecting user,
// newest-first.
func (c *Client) Mentions(ctx context.Context, count int) ([]Mention, error) {
	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	body, err := c.Call(ctx, "activity.mentions", params)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Mentions []Mention `json:"mentions"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("slack: parsing activity.mentions response: %w", err)
	}
	return payload.Mentions, nil
}

// ThreadView fetches the threads the connecting user is subscribed to.
func (c *Client) ThreadView(ctx context.Context) ([]Thread, error) {
	body, err := c.Call(ctx, "subscriptions.thread.getView", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Threads []Thread `json:"threads"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("slack: parsing thread view response: %w", err)
	}
	return payload.Threads, nil
}

// JoinChannel joins the named public channel, creating it when it does
// not exist. The name is passed without its # sigil.
func (c *Client) JoinChannel(ctx context.Context, name string) error {
	params := url.Values{}
	params.Set("name", name)
	_, err := c.Call(ctx, "channels.join", params)
	return err
}

// CreateGroup creates a private group with the given name.
func (c *Client) CreateGroup(ctx context.Context, name string) error {
	params := url.Values{}
	params.Set("name", name)
	_, err := c.Call(ctx, "groups.create", params)
	return err
}

// RunCommand dispatches a slash command in the given conversation.
func (c *Client) RunCommand(ctx context.Context, conversationID, command, text string) error {
	params := url.Values{}
	params.Set("channel", conversationID)
	params.Set("command", command)
	params.Set("text", text)
	_, err := c.Call(ctx, "chat.command", params)
	return err
}
