// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

package slack

// Entity is one directory record: a user, channel, group, direct
// message, bot, or the team itself. The kind is carried by the flag
// fields and by the id's type prefix (U, C, G, D, B, or the team id).
//
// IsBot is a pointer because presence matters: users and bots carry
// the field (true or false) while channels and groups omit it, and
// name resolution keys off that distinction.
type Entity struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`

	IsChannel bool  `json:"is_channel,omitempty"`
	IsGroup   bool  `json:"is_group,omitempty"`
	IsIM      bool  `json:"is_im,omitempty"`
	IsBot     *bool `json:"is_bot,omitempty"`

	// User is the peer user id on direct-message records.
	User string `json:"user,omitempty"`

	IsMember   bool `json:"is_member,omitempty"`
	IsArchived bool `json:"is_archived,omitempty"`
	IsOpen     bool `json:"is_open,omitempty"`

	UnreadCount int `json:"unread_count,omitempty"`
}

// Self is the connecting identity from the snapshot.
type Self struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot is the full workspace directory returned by rtm.start: the
// connecting identity, the team record, the parallel entity lists, and
// the realtime socket URL.
type Snapshot struct {
	Self     Self     `json:"self"`
	Team     Entity   `json:"team"`
	Users    []Entity `json:"users"`
	Channels []Entity `json:"channels"`
	Groups   []Entity `json:"groups"`
	IMs      []Entity `json:"ims"`
	Bots     []Entity `json:"bots"`
	URL      string   `json:"url"`
}

// Message is a generic wire object. Messages pass through the bridge
// untyped so that fields unknown to us survive the round trip.
type Message = map[string]any

// Mention is one entry from activity.mentions: the channel it occurred
// in plus the embedded message.
type Mention struct {
	Channel string  `json:"channel"`
	Message Message `json:"message"`
}

// Thread is one subscribed thread from subscriptions.thread.getView.
type Thread struct {
	RootMsg       Message   `json:"root_msg"`
	LatestReplies []Message `json:"latest_replies"`
}
