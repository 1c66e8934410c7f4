// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"nhooyr.io/websocket"

	"github.com/slackline/slackline/directory"
	"github.com/slackline/slackline/lib/clock"
	"github.com/slackline/slackline/lib/netutil"
	"github.com/slackline/slackline/slack"
)

// maxLineSize bounds a single local input line.
const maxLineSize = 1 << 20

// maxFrameSize bounds a single inbound socket frame.
const maxFrameSize = 1 << 20

// Session-exit reasons. Input EOF is terminal; everything else
// re-enters the connect loop.
const (
	reasonInputClosed      = "input closed"
	reasonSocketClosed     = "socket closed"
	reasonReconnectCommand = "reconnect command"
	reasonKeepaliveTimeout = "keepalive timeout"
)

// Socket is the realtime connection as the bridge sees it: text
// frames in, text frames out. The production implementation wraps a
// websocket; tests substitute their own.
type Socket interface {
	// Read returns the next frame payload. It returns an error when
	// the socket closes or the context is cancelled.
	Read(ctx context.Context) ([]byte, error)

	// Write sends one text frame.
	Write(ctx context.Context, data []byte) error

	// Close performs the closing handshake. Idempotent in effect:
	// closing an already-closed socket returns an error the bridge
	// ignores.
	Close(code websocket.StatusCode, reason string) error
}

// Bridge connects local newline-delimited JSON to a workspace realtime
// session. Configure the exported fields, then call Run.
type Bridge struct {
	// Client is the side-channel API client. Required.
	Client *slack.Client

	// Input delivers newline-delimited JSON objects. Required.
	// Closing it (EOF) shuts the bridge down.
	Input io.Reader

	// Output receives newline-delimited JSON objects. Required.
	Output io.Writer

	// Logger receives structured log output. If nil, slog.Default()
	// is used. The output stream is never used for diagnostics.
	Logger *slog.Logger

	// Clock drives the keepalive ticker and pong deadlines. If nil,
	// the real clock is used.
	Clock clock.Clock

	// KeepaliveInterval is the ping period. Default 10s.
	KeepaliveInterval time.Duration

	// KeepaliveTimeout is the pong deadline; a ping unanswered for
	// this long forces a reconnect. Default 5s.
	KeepaliveTimeout time.Duration

	// HistoryCount is the number of messages fetched per history or
	// mentions request. Default 30.
	HistoryCount int

	// SummaryWriter, when set, receives the human-readable roster at
	// each connect. Nil logs the roster at Debug instead.
	SummaryWriter io.Writer

	// Dial overrides socket dialing, for tests. Nil dials the
	// snapshot's socket URL over websocket.
	Dial func(ctx context.Context, socketURL string) (Socket, error)
}

func (b *Bridge) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b *Bridge) clock() clock.Clock {
	if b.Clock != nil {
		return b.Clock
	}
	return clock.Real()
}

func (b *Bridge) keepaliveInterval() time.Duration {
	if b.KeepaliveInterval > 0 {
		return b.KeepaliveInterval
	}
	return 10 * time.Second
}

func (b *Bridge) keepaliveTimeout() time.Duration {
	if b.KeepaliveTimeout > 0 {
		return b.KeepaliveTimeout
	}
	return 5 * time.Second
}

func (b *Bridge) historyCount() int {
	if b.HistoryCount > 0 {
		return b.HistoryCount
	}
	return 30
}

// Run connects and bridges until the local input ends or an
// unrecoverable error occurs. Socket closes, keepalive timeouts, and
// explicit reconnect commands tear the session down and rebuild it
// from a fresh directory snapshot; a failed snapshot fetch is fatal —
// there is no valid session without a directory.
func (b *Bridge) Run(ctx context.Context) error {
	if b.Client == nil {
		return fmt.Errorf("bridge: Client is required")
	}
	if b.Input == nil || b.Output == nil {
		return fmt.Errorf("bridge: Input and Output are required")
	}

	// The input reader outlives individual sessions: lines arriving
	// during a reconnect are delivered to the next session rather
	// than lost.
	lines := make(chan string, 1)
	go b.readInput(lines)

	for {
		reason, err := b.runSession(ctx, lines)
		if err != nil {
			return err
		}
		if reason == reasonInputClosed {
			return nil
		}
		b.logger().Info("reconnecting", "reason", reason)
		// Drop pooled connections: after a keepalive timeout the
		// HTTP pool may hold poisoned sockets to the same host.
		b.Client.CloseIdleConnections()
	}
}

// readInput scans local input lines into the channel and closes it at
// EOF. Blank lines are skipped before they reach the JSON parser.
func (b *Bridge) readInput(lines chan<- string) {
	defer close(lines)

	scanner := bufio.NewScanner(b.Input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines <- line
		}
	}
	if err := scanner.Err(); err != nil && !netutil.IsExpectedCloseError(err) {
		b.logger().Error("reading local input", "error", err)
	}
}

// runSession performs one Connecting→Open→Closing cycle and returns
// the reason the session ended.
func (b *Bridge) runSession(ctx context.Context, lines <-chan string) (string, error) {
	logger := b.logger()

	snapshot, err := b.Client.RTMStart(ctx)
	if err != nil {
		return "", fmt.Errorf("bridge: fetching directory snapshot: %w", err)
	}
	dir := directory.Build(snapshot)
	b.printSummary(dir)
	logger.Info("session starting",
		"self", snapshot.Self.Name,
		"team", snapshot.Team.Name,
		"unread", dir.UnreadCount(),
	)

	// The session context is the stale-session guard: side-channel
	// goroutines still in flight after teardown find it cancelled and
	// emit nothing.
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sock, err := b.dialSocket(sessionCtx, snapshot.URL)
	if err != nil {
		return "", fmt.Errorf("bridge: opening realtime socket: %w", err)
	}
	defer sock.Close(websocket.StatusNormalClosure, "")

	s := &session{
		bridge:     b,
		ctx:        sessionCtx,
		sock:       sock,
		pending:    newPendingTable(b.clock()),
		reconnectC: make(chan string, 1),
		logger:     logger,
	}
	s.dir.Store(dir)

	frames := make(chan []byte, 8)
	go s.readSocket(frames)

	ticker := b.clock().NewTicker(b.keepaliveInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case line, ok := <-lines:
			if !ok {
				logger.Info("local input closed, shutting down",
					"outstanding", s.pending.outstanding(),
				)
				return reasonInputClosed, nil
			}
			s.handleLine(line)

		case frame, ok := <-frames:
			if !ok {
				return reasonSocketClosed, nil
			}
			s.handleFrame(frame)

		case <-ticker.C:
			s.sendPing()

		case reason := <-s.reconnectC:
			return reason, nil
		}
	}
}

func (b *Bridge) printSummary(dir *directory.Directory) {
	if b.SummaryWriter == nil {
		for _, line := range dir.Summary() {
			b.logger().Debug("roster", "entries", line)
		}
		return
	}
	for _, line := range dir.Summary() {
		fmt.Fprintln(b.SummaryWriter, line)
	}
}

func (b *Bridge) dialSocket(ctx context.Context, socketURL string) (Socket, error) {
	if b.Dial != nil {
		return b.Dial(ctx, socketURL)
	}
	conn, _, err := websocket.Dial(ctx, socketURL, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxFrameSize)
	return &wsSocket{conn: conn}, nil
}

// wsSocket adapts a websocket connection to the Socket interface.
type wsSocket struct {
	conn *websocket.Conn
}

func (s *wsSocket) Read(ctx context.Context) ([]byte, error) {
	_, data, err := s.conn.Read(ctx)
	return data, err
}

func (s *wsSocket) Write(ctx context.Context, data []byte) error {
	return s.conn.Write(ctx, websocket.MessageText, data)
}

func (s *wsSocket) Close(code websocket.StatusCode, reason string) error {
	return s.conn.Close(code, reason)
}
