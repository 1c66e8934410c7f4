// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

// Package directory maintains the workspace directory snapshot and the
// two name transforms built on it.
//
// [Build] indexes a snapshot wholesale: every user, channel, group,
// direct message, and bot by id, plus the team record under the
// team's own id. The index is never mutated after Build — a refresh
// produces a new Directory, and ids created after the snapshot stay
// unresolvable until then.
//
// [Directory.Resolve] is the inbound transform: wire identifiers in a
// decoded JSON tree become human-readable {id, name} pairs, and
// bracketed id references in text become sigiled names. Lookup misses
// on recognized fields are tolerated (the bare id stays); an unknown
// id inside a text reference aborts that one message.
//
// [Directory.Unresolve] is the outbound inverse: sigiled names typed
// by the operator become wire identifiers. Misses leave the original
// token so the operator sees what failed to resolve.
package directory
