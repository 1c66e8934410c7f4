// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

package slack

import (
	"errors"
	"fmt"
)

// APIError is a structured {ok:false} response from the workspace API.
// Callers use errors.As to extract the server-provided reason:
//
//	var apiErr *slack.APIError
//	if errors.As(err, &apiErr) {
//	    if apiErr.Reason == slack.ErrReasonNameTaken { ... }
//	}
type APIError struct {
	// Endpoint is the API method that failed (e.g., "channels.join").
	Endpoint string
	// Reason is the machine-readable error string from the server
	// (e.g., "channel_not_found").
	Reason string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("slack: %s: %s", e.Endpoint, e.Reason)
}

// Error reasons the bridge distinguishes.
const (
	ErrReasonNotAuthed       = "not_authed"
	ErrReasonInvalidAuth     = "invalid_auth"
	ErrReasonChannelNotFound = "channel_not_found"
	ErrReasonNameTaken       = "name_taken"
	ErrReasonRateLimited     = "ratelimited"
)

// IsAPIError reports whether err is an *APIError with the given reason.
func IsAPIError(err error, reason string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Reason == reason
	}
	return false
}
