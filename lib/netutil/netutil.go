// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP and connection I/O helpers for the
// bridge.
//
// Response body reads are bounded at MaxResponseSize so a misbehaving
// server cannot exhaust memory. The bound applies to the JSON API
// side-channel only; websocket frames are size-limited by the socket
// layer itself.
package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// MaxResponseSize bounds side-channel response body reads: 64 MB. A
// full workspace snapshot for a large team is the biggest legitimate
// response and sits orders of magnitude below this.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads a JSON API response body up to MaxResponseSize
// bytes. Use instead of io.ReadAll for HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// IsExpectedCloseError reports whether err is a normal connection
// termination: EOF, closed connection, broken pipe, or connection
// reset. These occur during ordinary teardown when one side of the
// bridge disconnects and the other side's in-flight read or write
// fails as a result.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
