// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge connects a line-oriented local JSON stream to the
// workspace's realtime socket.
//
// [Bridge.Run] owns the connection lifecycle: it fetches a directory
// snapshot, dials the socket, and runs one session at a time until the
// local input ends. A session wires the two directions together —
// local lines are validated, unresolved to wire identifiers, stamped
// with a correlation id, and either intercepted as meta-commands
// (history, mentions, threads, create/join, slash commands, reconnect)
// serviced over the HTTP side channel, or forwarded to the socket.
// Inbound frames are correlated against the pending-request table,
// resolved to human-readable names, and emitted as output lines.
//
// A periodic ping probes the socket; a missing pong, a socket close,
// or an explicit reconnect command discards the whole session state
// and rebuilds it from a fresh snapshot. Side-channel work still in
// flight at teardown completes against a cancelled session context and
// emits nothing.
package bridge
