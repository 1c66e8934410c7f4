// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

package slack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// newTestClient creates a Client pointing at a test server.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{BaseURL: server.URL, Token: "test-token"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

func writeJSON(writer http.ResponseWriter, v any) {
	writer.Header().Set("Content-Type", "application/json")
	json.NewEncoder(writer).Encode(v)
}

func TestNewClient(t *testing.T) {
	t.Run("missing base URL", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{Token: "t"}); err == nil {
			t.Fatal("expected error for empty BaseURL")
		}
	})

	t.Run("missing token", func(t *testing.T) {
		if _, err := NewClient(ClientConfig{BaseURL: "https://slack.com/api"}); err == nil {
			t.Fatal("expected error for empty Token")
		}
	})
}

func TestCall(t *testing.T) {
	t.Run("token attached", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if got := request.URL.Query().Get("token"); got != "test-token" {
				t.Errorf("missing or wrong token: %q", got)
			}
			if request.URL.Path != "/test.method" {
				t.Errorf("unexpected path: %s", request.URL.Path)
			}
			writeJSON(writer, map[string]any{"ok": true, "value": 42})
		}))

		body, err := client.Call(context.Background(), "test.method", nil)
		if err != nil {
			t.Fatalf("Call failed: %v", err)
		}
		var payload struct {
			Value int `json:"value"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("decoding payload: %v", err)
		}
		if payload.Value != 42 {
			t.Errorf("unexpected payload value: %d", payload.Value)
		}
	})

	t.Run("ok false becomes APIError", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writeJSON(writer, map[string]any{"ok": false, "error": "channel_not_found"})
		}))

		_, err := client.Call(context.Background(), "channels.join", url.Values{"name": {"nope"}})
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
		if apiErr.Endpoint != "channels.join" || apiErr.Reason != "channel_not_found" {
			t.Errorf("unexpected APIError fields: %+v", apiErr)
		}
		if !IsAPIError(err, ErrReasonChannelNotFound) {
			t.Error("IsAPIError did not match the reason")
		}
	})

	t.Run("non-JSON response", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusBadGateway)
			writer.Write([]byte("<html>gateway error</html>"))
		}))

		if _, err := client.Call(context.Background(), "rtm.start", nil); err == nil {
			t.Fatal("expected error for non-JSON response")
		}
	})
}

func TestRTMStart(t *testing.T) {
	t.Run("complete snapshot", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path != "/rtm.start" {
				t.Errorf("unexpected path: %s", request.URL.Path)
			}
			writeJSON(writer, map[string]any{
				"ok":       true,
				"self":     map[string]any{"id": "U1", "name": "alice"},
				"team":     map[string]any{"id": "T1", "name": "acme"},
				"users":    []any{map[string]any{"id": "U1", "name": "alice", "is_bot": false}},
				"channels": []any{map[string]any{"id": "C1", "name": "general", "is_channel": true, "is_member": true}},
				"groups":   []any{},
				"ims":      []any{map[string]any{"id": "D1", "user": "U1", "is_im": true}},
				"bots":     []any{},
				"url":      "wss://example.invalid/rtm",
			})
		}))

		snapshot, err := client.RTMStart(context.Background())
		if err != nil {
			t.Fatalf("RTMStart failed: %v", err)
		}
		if snapshot.Self.ID != "U1" {
			t.Errorf("unexpected self id: %s", snapshot.Self.ID)
		}
		if snapshot.URL != "wss://example.invalid/rtm" {
			t.Errorf("unexpected socket URL: %s", snapshot.URL)
		}
		if len(snapshot.Channels) != 1 || !snapshot.Channels[0].IsChannel {
			t.Errorf("channel list not decoded: %+v", snapshot.Channels)
		}
		if snapshot.Users[0].IsBot == nil || *snapshot.Users[0].IsBot {
			t.Errorf("is_bot presence not preserved: %+v", snapshot.Users[0].IsBot)
		}
	})

	t.Run("missing list is fatal", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writeJSON(writer, map[string]any{
				"ok":       true,
				"self":     map[string]any{"id": "U1"},
				"team":     map[string]any{"id": "T1"},
				"users":    []any{},
				"channels": []any{},
				"groups":   []any{},
				"bots":     []any{},
				"url":      "wss://example.invalid/rtm",
			})
		}))

		if _, err := client.RTMStart(context.Background()); err == nil {
			t.Fatal("expected error for snapshot missing ims list")
		}
	})
}

func TestHistory(t *testing.T) {
	endpointCases := []struct {
		id       string
		endpoint string
	}{
		{"C123", "/channels.history"},
		{"G123", "/groups.history"},
		{"D123", "/im.history"},
	}
	for _, testCase := range endpointCases {
		t.Run(testCase.endpoint, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				if request.URL.Path != testCase.endpoint {
					t.Errorf("unexpected path: %s", request.URL.Path)
				}
				if got := request.URL.Query().Get("channel"); got != testCase.id {
					t.Errorf("unexpected channel param: %s", got)
				}
				if got := request.URL.Query().Get("count"); got != "30" {
					t.Errorf("unexpected count param: %s", got)
				}
				writeJSON(writer, map[string]any{
					"ok": true,
					"messages": []any{
						map[string]any{"type": "message", "text": "newest"},
						map[string]any{"type": "message", "text": "oldest"},
					},
				})
			}))

			messages, err := client.History(context.Background(), testCase.id, 30)
			if err != nil {
				t.Fatalf("History failed: %v", err)
			}
			if len(messages) != 2 || messages[0]["text"] != "newest" {
				t.Errorf("unexpected messages: %v", messages)
			}
		})
	}

	t.Run("unknown prefix", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Error("no request expected for unknown prefix")
		}))
		if _, err := client.History(context.Background(), "X123", 30); err == nil {
			t.Fatal("expected error for unknown id prefix")
		}
	})
}

func TestMentionsAndThreads(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		switch request.URL.Path {
		case "/activity.mentions":
			writeJSON(writer, map[string]any{
				"ok": true,
				"mentions": []any{
					map[string]any{"channel": "C1", "message": map[string]any{"text": "hey"}},
				},
			})
		case "/subscriptions.thread.getView":
			writeJSON(writer, map[string]any{
				"ok": true,
				"threads": []any{
					map[string]any{
						"root_msg":       map[string]any{"text": "root", "channel": "C1"},
						"latest_replies": []any{map[string]any{"text": "reply"}},
					},
				},
			})
		default:
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
	}))

	mentions, err := client.Mentions(context.Background(), 10)
	if err != nil {
		t.Fatalf("Mentions failed: %v", err)
	}
	if len(mentions) != 1 || mentions[0].Channel != "C1" || mentions[0].Message["text"] != "hey" {
		t.Errorf("unexpected mentions: %+v", mentions)
	}

	threads, err := client.ThreadView(context.Background())
	if err != nil {
		t.Fatalf("ThreadView failed: %v", err)
	}
	if len(threads) != 1 || threads[0].RootMsg["text"] != "root" || len(threads[0].LatestReplies) != 1 {
		t.Errorf("unexpected threads: %+v", threads)
	}
}

func TestMarkRead(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/groups.mark" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		if got := request.URL.Query().Get("ts"); got != "123.456" {
			t.Errorf("unexpected ts: %s", got)
		}
		writeJSON(writer, map[string]any{"ok": true})
	}))

	if err := client.MarkRead(context.Background(), "G9", "123.456"); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}
}

func TestRunCommand(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/chat.command" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		query := request.URL.Query()
		if query.Get("command") != "/topic" || query.Get("text") != "new topic" || query.Get("channel") != "C1" {
			t.Errorf("unexpected params: %v", query)
		}
		writeJSON(writer, map[string]any{"ok": true})
	}))

	if err := client.RunCommand(context.Background(), "C1", "/topic", "new topic"); err != nil {
		t.Fatalf("RunCommand failed: %v", err)
	}
}
