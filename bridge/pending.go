// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"sync"
	"time"

	"github.com/slackline/slackline/lib/clock"
	"github.com/slackline/slackline/slack"
)

// pendingSlots bounds the correlation table. Ids cycle 1..100; the
// 101st outstanding request silently reuses the oldest slot. Bounded
// memory is the contract here — an unanswered request is forgotten
// after 100 further sends, never accumulated.
const pendingSlots = 100

// pendingEntry is one outstanding client-originated request.
type pendingEntry struct {
	object  slack.Message
	created time.Time

	// timer is the pong deadline for keepalive pings; nil for
	// ordinary requests.
	timer *clock.Timer
}

// pendingTable correlates replies with the requests that caused them.
// The input pump, the socket pump, and the keepalive tick all touch
// it, so access is serialized by the mutex.
type pendingTable struct {
	mu      sync.Mutex
	entries map[int]pendingEntry
	next    int
	clk     clock.Clock
}

func newPendingTable(clk clock.Clock) *pendingTable {
	return &pendingTable{
		entries: make(map[int]pendingEntry),
		next:    1,
		clk:     clk,
	}
}

// save stamps obj with the next correlation id, records it, and
// advances the cycle. When the cycle wraps onto a slot still holding
// an unanswered request, that request is discarded; a pong deadline
// attached to the discarded entry is cancelled with it.
func (p *pendingTable) save(obj slack.Message, timer *clock.Timer) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.next
	if evicted, ok := p.entries[id]; ok && evicted.timer != nil {
		evicted.timer.Stop()
	}
	obj["id"] = id
	p.entries[id] = pendingEntry{
		object:  obj,
		created: p.clk.Now(),
		timer:   timer,
	}
	p.next = id%pendingSlots + 1
	return id
}

// load removes and returns the entry for a reply's correlation id.
// A miss means the reply is stale — evicted by wraparound, answered
// already, or never sent — and the caller discards it. A miss does
// not mutate the table.
func (p *pendingTable) load(id int) (pendingEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[id]
	if !ok {
		return pendingEntry{}, false
	}
	delete(p.entries, id)
	return entry, true
}

// outstanding reports the number of unanswered requests, for logging.
func (p *pendingTable) outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
