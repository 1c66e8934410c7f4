// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts timer creation so keepalive behavior can be
// tested deterministically. Production code injects Real(); tests
// inject Fake() and drive time forward with Advance.
package clock
