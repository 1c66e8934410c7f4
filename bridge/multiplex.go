// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"strings"

	"github.com/slackline/slackline/directory"
	"github.com/slackline/slackline/slack"
)

// dispatch intercepts meta-commands: outbound objects whose type is
// serviced by the side channel instead of the socket. Returns true
// when the object was handled. Side-channel work runs in its own
// goroutine — the session loop never blocks on a network call — and
// failures are logged, never propagated.
func (s *session) dispatch(obj slack.Message, messageType string) bool {
	switch messageType {
	case "channels_history":
		conversationID, ok := obj["channel"].(string)
		if !ok {
			// The channel name never resolved; there is nothing to
			// fetch history for.
			return true
		}
		go s.fetchHistory(conversationID)
		return true

	case "activity_mentions":
		go s.fetchMentions()
		return true

	case "thread_getview":
		go s.fetchThreads()
		return true

	case "channels_create", "groups_create":
		channel, ok := obj["channel"].(map[string]any)
		if !ok {
			// Already resolvable, so it already exists.
			return true
		}
		name, _ := channel["name"].(string)
		go s.createConversation(messageType, name)
		return true

	case "reconnect":
		s.requestReconnect(reasonReconnectCommand)
		return true

	case "message":
		if text, ok := obj["text"].(string); ok && strings.HasPrefix(text, "/") {
			go s.runCommand(obj, text)
			return true
		}
		return false

	default:
		return false
	}
}

// fetchHistory emits the conversation's recent messages as if they
// had arrived over the socket, then moves the read cursor. The API
// returns newest-first; emission is oldest-first so the output reads
// chronologically.
func (s *session) fetchHistory(conversationID string) {
	messages, err := s.bridge.Client.History(s.ctx, conversationID, s.bridge.historyCount())
	if err != nil {
		s.logger.Error("history fetch failed", "channel", conversationID, "error", err)
		return
	}

	for i := len(messages) - 1; i >= 0; i-- {
		message := messages[i]
		if message == nil {
			continue
		}
		// History payloads omit the channel; stamp it so output
		// lines are self-describing.
		message["channel"] = conversationID
		s.emit(message)
	}

	if len(messages) > 0 {
		if timestamp, ok := messages[0]["ts"].(string); ok {
			if err := s.bridge.Client.MarkRead(s.ctx, conversationID, timestamp); err != nil {
				s.logger.Error("mark read failed", "channel", conversationID, "error", err)
			}
		}
	}
}

// fetchMentions emits recent mentions of the connecting user,
// oldest-first. Each mention's message inherits the mention's channel.
func (s *session) fetchMentions() {
	mentions, err := s.bridge.Client.Mentions(s.ctx, s.bridge.historyCount())
	if err != nil {
		s.logger.Error("mentions fetch failed", "error", err)
		return
	}

	for i := len(mentions) - 1; i >= 0; i-- {
		message := mentions[i].Message
		if message == nil {
			continue
		}
		message["channel"] = mentions[i].Channel
		s.emit(message)
	}
}

// fetchThreads emits each subscribed thread: the root message first,
// then its latest replies, each stamped with the root's channel.
func (s *session) fetchThreads() {
	threads, err := s.bridge.Client.ThreadView(s.ctx)
	if err != nil {
		s.logger.Error("thread view fetch failed", "error", err)
		return
	}

	for _, thread := range threads {
		root := thread.RootMsg
		if root == nil {
			continue
		}
		conversationID, _ := root["channel"].(string)
		// Strip the thread marker so the root reads as an ordinary
		// message rather than a reply to itself.
		delete(root, "thread_ts")
		s.emit(root)

		for _, reply := range thread.LatestReplies {
			if reply == nil {
				continue
			}
			reply["channel"] = conversationID
			s.emit(reply)
		}
	}
}

// createConversation joins or creates the named conversation, then
// refreshes the directory so the new entity resolves.
func (s *session) createConversation(messageType, name string) {
	name = strings.TrimPrefix(name, "#")
	if name == "" {
		s.logger.Error("create requested without a name", "type", messageType)
		return
	}

	var err error
	if messageType == "groups_create" {
		err = s.bridge.Client.CreateGroup(s.ctx, name)
	} else {
		err = s.bridge.Client.JoinChannel(s.ctx, name)
	}
	if err != nil {
		s.logger.Error("create failed", "type", messageType, "name", name, "error", err)
		return
	}

	s.refreshDirectory()
}

// refreshDirectory fetches a fresh snapshot and swaps it in. Unlike
// the connect-time fetch, a refresh failure is not fatal: the session
// keeps the old directory and the new entity stays unresolvable until
// the next refresh or reconnect.
func (s *session) refreshDirectory() {
	snapshot, err := s.bridge.Client.RTMStart(s.ctx)
	if err != nil {
		s.logger.Error("directory refresh failed", "error", err)
		return
	}
	if s.ctx.Err() != nil {
		return
	}
	s.dir.Store(directory.Build(snapshot))
	s.logger.Info("directory refreshed",
		"users", len(snapshot.Users),
		"channels", len(snapshot.Channels),
	)
}

// runCommand dispatches a slash command over the side channel. The
// leading token is the command, the remainder its argument text.
func (s *session) runCommand(obj slack.Message, text string) {
	command, argument := text, ""
	if space := strings.IndexByte(text, ' '); space >= 0 {
		command, argument = text[:space], strings.TrimSpace(text[space+1:])
	}
	conversationID, _ := obj["channel"].(string)

	if err := s.bridge.Client.RunCommand(s.ctx, conversationID, command, argument); err != nil {
		s.logger.Error("command dispatch failed", "command", command, "error", err)
	}
}
