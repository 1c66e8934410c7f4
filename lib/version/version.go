// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the build version of the slackline binary.
package version

import "runtime/debug"

// Version is the release version, overridden at build time via
// -ldflags "-X github.com/slackline/slackline/lib/version.Version=...".
var Version = "dev"

// Info returns the version string, falling back to the module version
// recorded in build info when no release version was stamped.
func Info() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
