// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"strings"

	"github.com/slackline/slackline/slack"
)

// Directory is an immutable snapshot index of the workspace: every
// known entity keyed by id, plus the raw snapshot lists for name
// lookups on the outbound path. A refresh replaces the whole Directory
// rather than mutating it, so readers never observe a partial index.
type Directory struct {
	snapshot *slack.Snapshot
	byID     map[string]slack.Entity
}

// Build indexes a directory snapshot. Records from every entity list
// are indexed by id; the team record is indexed under the team's own
// id.
func Build(snapshot *slack.Snapshot) *Directory {
	byID := make(map[string]slack.Entity)
	for _, list := range [][]slack.Entity{
		snapshot.Users,
		snapshot.Channels,
		snapshot.Groups,
		snapshot.IMs,
		snapshot.Bots,
	} {
		for _, entity := range list {
			byID[entity.ID] = entity
		}
	}
	byID[snapshot.Team.ID] = snapshot.Team

	return &Directory{
		snapshot: snapshot,
		byID:     byID,
	}
}

// Lookup returns the entity record for an id, if the id existed at
// snapshot time.
func (d *Directory) Lookup(id string) (slack.Entity, bool) {
	entity, ok := d.byID[id]
	return entity, ok
}

// Self returns the connecting identity from the snapshot.
func (d *Directory) Self() slack.Self {
	return d.snapshot.Self
}

// SocketURL returns the realtime socket endpoint from the snapshot.
func (d *Directory) SocketURL() string {
	return d.snapshot.URL
}

// Summary returns the human-readable roster: active users, joined
// unarchived channels, and open unarchived groups, one line per kind.
// Printed at connect time so the operator sees what names are
// addressable.
func (d *Directory) Summary() []string {
	var users, channels, groups []string
	for _, user := range d.snapshot.Users {
		if !user.Deleted {
			users = append(users, "@"+user.Name)
		}
	}
	for _, channel := range d.snapshot.Channels {
		if channel.IsMember && !channel.IsArchived {
			channels = append(channels, "#"+channel.Name)
		}
	}
	for _, group := range d.snapshot.Groups {
		if group.IsOpen && !group.IsArchived {
			groups = append(groups, group.Name)
		}
	}
	return []string{
		strings.Join(users, " "),
		strings.Join(channels, " "),
		strings.Join(groups, " "),
	}
}

// UnreadCount sums the unread counters of joined channels and open
// groups.
func (d *Directory) UnreadCount() int {
	total := 0
	for _, channel := range d.snapshot.Channels {
		if channel.IsMember && !channel.IsArchived {
			total += channel.UnreadCount
		}
	}
	for _, group := range d.snapshot.Groups {
		if group.IsOpen && !group.IsArchived {
			total += group.UnreadCount
		}
	}
	return total
}

// conversationID resolves an operator-typed reference to a wire id.
// The sigil selects the lookup domain: @ for users, # for channels,
// ~ for direct messages (resolved through the peer user), and no
// sigil for groups.
func (d *Directory) conversationID(ref string) (string, bool) {
	sigil, name := "", ref
	switch {
	case strings.HasPrefix(ref, "@"), strings.HasPrefix(ref, "#"), strings.HasPrefix(ref, "~"):
		sigil, name = ref[:1], ref[1:]
	}

	switch sigil {
	case "@":
		for _, user := range d.snapshot.Users {
			if user.Name == name {
				return user.ID, true
			}
		}
	case "#":
		for _, channel := range d.snapshot.Channels {
			if channel.Name == name {
				return channel.ID, true
			}
		}
	case "~":
		// Direct messages have no name of their own: find the peer
		// user, then the conversation referencing that user.
		var peerID string
		for _, user := range d.snapshot.Users {
			if user.Name == name {
				peerID = user.ID
				break
			}
		}
		if peerID == "" {
			return "", false
		}
		for _, im := range d.snapshot.IMs {
			if im.User == peerID {
				return im.ID, true
			}
		}
	default:
		for _, group := range d.snapshot.Groups {
			if group.Name == name {
				return group.ID, true
			}
		}
	}
	return "", false
}
