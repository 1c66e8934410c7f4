// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"nhooyr.io/websocket"

	"github.com/slackline/slackline/directory"
	"github.com/slackline/slackline/lib/netutil"
	"github.com/slackline/slackline/slack"
)

// session is one live connection's state: the directory, the pending
// request table, and the socket. It is discarded wholesale on
// reconnect — never reused, never merged into the next session.
type session struct {
	bridge *Bridge
	ctx    context.Context
	sock   Socket
	logger *slog.Logger

	// dir holds the current directory. Refreshes swap the pointer
	// atomically so concurrent side-channel emitters never observe a
	// partially built index.
	dir atomic.Pointer[directory.Directory]

	pending *pendingTable

	// reconnectC receives the first teardown reason; later triggers
	// are dropped since one teardown suffices.
	reconnectC chan string

	// emitMu serializes output lines: the session loop and
	// side-channel fetch goroutines all emit, and partial line
	// interleaving would corrupt the protocol.
	emitMu sync.Mutex
}

func (s *session) directory() *directory.Directory {
	return s.dir.Load()
}

// requestReconnect records a teardown reason. Non-blocking: if a
// reason is already queued the session is going down anyway.
func (s *session) requestReconnect(reason string) {
	select {
	case s.reconnectC <- reason:
	default:
	}
}

// readSocket pumps inbound frames into the channel until the socket
// closes, then closes the channel so the session loop observes the
// close.
func (s *session) readSocket(frames chan<- []byte) {
	defer close(frames)
	for {
		data, err := s.sock.Read(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			if code := websocket.CloseStatus(err); code != -1 {
				s.logger.Info("socket closed", "code", int(code))
			} else if !netutil.IsExpectedCloseError(err) {
				s.logger.Error("socket read failed", "error", err)
			}
			return
		}
		select {
		case frames <- data:
		case <-s.ctx.Done():
			return
		}
	}
}

// handleLine processes one local input line: validate, unresolve,
// stamp, then multiplex to the side channel or the socket. Malformed
// input is logged and dropped; the pipeline never stops for it.
func (s *session) handleLine(line string) {
	var obj slack.Message
	if err := json.Unmarshal([]byte(line), &obj); err != nil {
		s.logger.Error("invalid local input", "error", err)
		return
	}
	messageType, ok := obj["type"].(string)
	if !ok {
		s.logger.Error("local input missing type field")
		return
	}

	dir := s.directory()
	dir.Unresolve(obj)
	s.pending.save(obj, nil)

	if s.dispatch(obj, messageType) {
		return
	}

	// An unresolved channel survives as the {id, name} object. The
	// wire expects a bare id, so the object is not ready to send.
	if _, unresolved := obj["channel"].(map[string]any); unresolved {
		s.logger.Error("channel name did not resolve, dropping message",
			"type", messageType,
		)
		return
	}

	data, err := json.Marshal(obj)
	if err != nil {
		s.logger.Error("encoding outbound message", "error", err)
		return
	}
	if err := s.sock.Write(s.ctx, data); err != nil {
		s.logger.Error("socket write failed", "error", err)
	}
}

// handleFrame processes one inbound socket frame: correlate, resolve,
// emit.
func (s *session) handleFrame(frame []byte) {
	var obj slack.Message
	if err := json.Unmarshal(frame, &obj); err != nil {
		s.logger.Error("invalid socket frame", "error", err)
		return
	}

	if replyTo, ok := numericField(obj, "reply_to"); ok {
		entry, found := s.pending.load(replyTo)
		if !found {
			// Evicted by wraparound or never sent from here: the
			// reply is stale and has no meaning downstream.
			s.logger.Debug("discarding uncorrelated reply", "reply_to", replyTo)
			return
		}
		if entry.timer != nil {
			entry.timer.Stop()
			if obj["type"] == "pong" {
				// Keepalive pongs answer pings this bridge
				// generated; the local consumer never sees either
				// side of the probe.
				return
			}
		}
		obj["reply_to"] = entry.object
		obj["user"] = s.directory().Self().ID
	}

	s.emit(obj)
}

// sendPing stamps and sends a keepalive probe, arming the pong
// deadline. The deadline firing means the connection is dead: the
// session is torn down and rebuilt.
func (s *session) sendPing() {
	clk := s.bridge.clock()
	ping := slack.Message{
		"type": "ping",
		"time": clk.Now().Unix(),
	}
	timer := clk.AfterFunc(s.bridge.keepaliveTimeout(), func() {
		s.requestReconnect(reasonKeepaliveTimeout)
	})
	s.pending.save(ping, timer)

	data, err := json.Marshal(ping)
	if err != nil {
		s.logger.Error("encoding keepalive ping", "error", err)
		return
	}
	if err := s.sock.Write(s.ctx, data); err != nil {
		s.logger.Debug("keepalive write failed", "error", err)
	}
}

// emit resolves identifiers to names and writes the object as one
// output line. Resolution failure (an unknown id in a text reference)
// abandons this message only.
func (s *session) emit(obj slack.Message) {
	if s.ctx.Err() != nil {
		// Stale-session guard: a side-channel callback completing
		// after teardown must not write against the next session.
		return
	}
	if err := s.directory().Resolve(obj); err != nil {
		s.logger.Error("resolving inbound message", "error", err)
		return
	}
	data, err := json.Marshal(obj)
	if err != nil {
		s.logger.Error("encoding output line", "error", err)
		return
	}

	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if _, err := s.bridge.Output.Write(append(data, '\n')); err != nil {
		s.logger.Error("writing output line", "error", err)
	}
}

// numericField extracts an integer-valued field from a decoded JSON
// object, where numbers arrive as float64.
func numericField(obj slack.Message, key string) (int, bool) {
	value, ok := obj[key].(float64)
	if !ok {
		return 0, false
	}
	return int(value), true
}
