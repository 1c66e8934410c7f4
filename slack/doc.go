// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

// Package slack wraps the workspace HTTP API used as the bridge's
// side channel.
//
// [Client] holds the API base URL, the session token, and the HTTP
// transport. [Client.Call] is the generic executor: an endpoint name
// plus a flat parameter set, returning the decoded payload on
// {ok:true} and an [*APIError] carrying the server's reason on
// {ok:false}. Typed methods (RTMStart, History, Mentions, ThreadView,
// JoinChannel, CreateGroup, MarkRead, RunCommand) build on Call and
// decode the payloads the bridge consumes.
//
// History-shaped endpoints are selected by the id's type prefix
// (C→channels, G→groups, D→im), mirroring the wire convention that
// entity ids are prefix-typed.
//
// Message payloads are decoded as generic map[string]any trees, not
// structs: downstream the resolver rewrites arbitrary nested fields,
// and a typed decoding would discard fields the bridge must pass
// through verbatim.
package slack
